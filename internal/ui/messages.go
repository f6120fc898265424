package ui

import (
	"vidtool/internal/batch"
	"vidtool/internal/progress"
)

type jobUpdateMsg struct {
	U progress.Update
}

type jobLogMsg struct {
	L progress.Log
}

type jobResultMsg struct {
	R progress.Result
}

type batchDoneMsg struct {
	Sum batch.Summary
	Err error
}
