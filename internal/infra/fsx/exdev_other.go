//go:build !unix

package fsx

func isEXDEV(err error) bool { return false }

func isRenameUnsupported(err error) bool { return false }
