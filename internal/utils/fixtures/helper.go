package fixtures

import (
	"encoding/json"

	"golang.org/x/xerrors"
)

func ReadFile(pathToFile string) ([]byte, error) {
	return FixturesFS.ReadFile(pathToFile)
}

func MustReadFile(pathToFile string) []byte {
	data, err := ReadFile(pathToFile)
	if err != nil {
		panic(err)
	}

	return data
}

func UnmarshalJSON(pathToFile string, out interface{}) error {
	data, err := ReadFile(pathToFile)
	if err != nil {
		return xerrors.Errorf("failed to read file %v: %w", pathToFile, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return xerrors.Errorf("failed to unmarshal file %v: %w", pathToFile, err)
	}

	return nil
}

func MustUnmarshalJSON(pathToFile string, out interface{}) {
	if err := UnmarshalJSON(pathToFile, out); err != nil {
		panic(err)
	}
}
