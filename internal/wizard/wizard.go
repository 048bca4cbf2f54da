// Package wizard sequences creative creation into booking creation.
package wizard

import "adboard-booking/internal/models"

// State is a snapshot of the wizard.
type State struct {
	CreativeVisible bool            `json:"creativeVisible"`
	BookingVisible  bool            `json:"bookingVisible"`
	Creative        models.Creative `json:"creative"`
	Done            bool            `json:"done"`
}

// Wizard shows the creative step first and the booking step after it. Once
// both steps are hidden the owner's done callback runs, exactly once.
// It is not safe for concurrent use.
type Wizard struct {
	creativeVisible bool
	bookingVisible  bool
	creative        models.Creative
	done            bool
	onDone          func()
}

func New(onDone func()) *Wizard {
	return &Wizard{
		creativeVisible: true,
		onDone:          onDone,
	}
}

// CreativeCreated stores the new creative and advances to the booking step.
func (w *Wizard) CreativeCreated(c models.Creative) {
	if !w.creativeVisible {
		return
	}
	w.creative = c
	w.creativeVisible = false
	w.bookingVisible = true
	w.settle()
}

// CreativeCancelled hides the creative step without advancing.
func (w *Wizard) CreativeCancelled() {
	w.creativeVisible = false
	w.settle()
}

// BookingClosed hides the booking step.
func (w *Wizard) BookingClosed() {
	w.bookingVisible = false
	w.settle()
}

func (w *Wizard) settle() {
	if w.creativeVisible || w.bookingVisible || w.done {
		return
	}
	w.done = true
	if w.onDone != nil {
		w.onDone()
	}
}

func (w *Wizard) Creative() models.Creative { return w.creative }

func (w *Wizard) Done() bool { return w.done }

func (w *Wizard) State() State {
	return State{
		CreativeVisible: w.creativeVisible,
		BookingVisible:  w.bookingVisible,
		Creative:        w.creative,
		Done:            w.done,
	}
}
