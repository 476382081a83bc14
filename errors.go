package glubview

import "github.com/pkg/errors"

var (
	ErrInvalidViewDirectory = errors.New("invalid view directory")
	ErrViewNotFound         = errors.New("view not found")

	ErrNestedBlock   = errors.New("nested blocks are not allowed")
	ErrNoActiveBlock = errors.New("no active block")
	ErrUnclosedBlock = errors.New("block not closed")
	ErrReservedName  = errors.New("reserved block name")
	ErrViewCycle     = errors.New("view renders itself")

	ErrDuplicateGlobal   = errors.New("global already defined")
	ErrUndefinedFunction = errors.New("undefined function")
	ErrBadCall           = errors.New("bad function call")

	ErrInvalidAssetDirectory = errors.New("invalid asset directory")
	ErrAssetNotFound         = errors.New("asset not found")
)
