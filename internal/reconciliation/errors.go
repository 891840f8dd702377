package reconciliation

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound          = errors.New("batch not found")
	ErrBatchValidated    = errors.New("batch already validated")
	ErrAlreadyReconciled = errors.New("period already reconciled")
	ErrEmptyImport       = errors.New("no transactions to import")
	ErrDuplicateImport   = errors.New("line number already imported")
	ErrInvoiceReconciled = errors.New("invoice already reconciled by another line")
)

// AlreadyReconciledError names the validated batch that covers part of the
// requested period. It matches ErrAlreadyReconciled.
type AlreadyReconciledError struct {
	Number string
	Start  time.Time
	End    time.Time
}

func (e *AlreadyReconciledError) Error() string {
	return fmt.Sprintf("period already reconciled by batch %s (%s to %s)",
		e.Number, e.Start.Format(time.DateOnly), e.End.Format(time.DateOnly))
}

func (e *AlreadyReconciledError) Is(target error) bool {
	return target == ErrAlreadyReconciled
}

// CascadeStep names one ordered step of a reversal.
type CascadeStep string

const (
	StepConsumptionDelete CascadeStep = "consumption-delete"
	StepPaymentDelete     CascadeStep = "payment-delete"
	StepJoinDelete        CascadeStep = "join-delete"
	StepInvoiceUnlink     CascadeStep = "invoice-unlink"
	StepRecordDelete      CascadeStep = "record-delete"
	StepLineDelete        CascadeStep = "line-delete"
	StepBatchDelete       CascadeStep = "batch-delete"
)

// CascadeError reports which reversal step failed. Every step is safe to retry.
type CascadeError struct {
	Step       CascadeStep
	LineNumber string
	Err        error
}

func (e *CascadeError) Error() string {
	if e.LineNumber == "" {
		return fmt.Sprintf("%s: %v", e.Step, e.Err)
	}

	return fmt.Sprintf("%s for line %s: %v", e.Step, e.LineNumber, e.Err)
}

func (e *CascadeError) Unwrap() error {
	return e.Err
}

type SaveError struct {
	LineNumber string
	Err        error
}

// SaveErrors lists the lines an auto-save could not persist. Lines not
// listed were saved.
type SaveErrors []SaveError

func (e SaveErrors) Error() string {
	parts := make([]string, len(e))
	for i, se := range e {
		parts[i] = fmt.Sprintf("%s: %v", se.LineNumber, se.Err)
	}

	return fmt.Sprintf("saving %d line(s): %s", len(e), strings.Join(parts, "; "))
}

func (e SaveErrors) Unwrap() []error {
	errs := make([]error, len(e))
	for i, se := range e {
		errs[i] = se.Err
	}

	return errs
}
