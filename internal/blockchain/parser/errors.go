package parser

import (
	"golang.org/x/xerrors"
)

var (
	ErrInvalidBlock    = xerrors.New("invalid block")
	ErrInconsistentLog = xerrors.New("inconsistent log")
)
