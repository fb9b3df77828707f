package app

import (
	"errors"
	"sync"
)

type FormState int

const (
	FormIdle FormState = iota
	FormEditing
	FormSubmitting
)

func (s FormState) String() string {
	switch s {
	case FormEditing:
		return "editing"
	case FormSubmitting:
		return "submitting"
	default:
		return "idle"
	}
}

var ErrFormBusy = errors.New("form is being submitted")

// Form is a snapshot of an edit form. Err holds the last failed submission.
type Form[T any] struct {
	State  FormState
	Values T
	Err    error
}

// formMachine moves a form through Idle -> Editing -> Submitting and back
// to Idle on success or Editing on failure.
type formMachine[T any] struct {
	mu   sync.Mutex
	form Form[T]
}

func (m *formMachine[T]) snapshot() Form[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.form
}

func (m *formMachine[T]) edit(values T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.form.State == FormSubmitting {
		return ErrFormBusy
	}
	m.form = Form[T]{State: FormEditing, Values: values}
	return nil
}

// update changes the values in place, keeping the last error on screen.
func (m *formMachine[T]) update(fn func(*T)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.form.State == FormSubmitting {
		return ErrFormBusy
	}
	fn(&m.form.Values)
	m.form.State = FormEditing
	return nil
}

func (m *formMachine[T]) begin() (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.form.State == FormSubmitting {
		var zero T
		return zero, ErrFormBusy
	}
	m.form.State = FormSubmitting
	m.form.Err = nil
	return m.form.Values, nil
}

func (m *formMachine[T]) finish(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.form.State = FormEditing
		m.form.Err = err
		return
	}
	m.form = Form[T]{}
}

func (m *formMachine[T]) reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.form.State == FormSubmitting {
		return ErrFormBusy
	}
	m.form = Form[T]{}
	return nil
}
