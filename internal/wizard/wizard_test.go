package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"adboard-booking/internal/models"
)

func TestInitialState(t *testing.T) {
	w := New(nil)

	assert.Equal(t, State{CreativeVisible: true}, w.State())
}

func TestCreateThenCancelBooking(t *testing.T) {
	calls := 0
	w := New(func() { calls++ })
	creative := models.Creative{ID: "c1", Title: "Summer Sale", Duration: 15}

	w.CreativeCreated(creative)
	assert.Equal(t, State{BookingVisible: true, Creative: creative}, w.State())
	assert.Equal(t, 0, calls)

	w.BookingClosed()
	assert.Equal(t, 1, calls)
	assert.True(t, w.Done())
	assert.False(t, w.State().CreativeVisible)
	assert.False(t, w.State().BookingVisible)
	assert.Equal(t, creative, w.Creative())
}

func TestCancelCreative(t *testing.T) {
	calls := 0
	w := New(func() { calls++ })

	w.CreativeCancelled()

	assert.Equal(t, 1, calls)
	assert.Equal(t, State{Done: true}, w.State())
}

func TestCompletionReportedOnce(t *testing.T) {
	calls := 0
	w := New(func() { calls++ })

	w.CreativeCreated(models.Creative{ID: "c1"})
	w.BookingClosed()
	w.BookingClosed()
	w.CreativeCancelled()
	w.CreativeCreated(models.Creative{ID: "c2"})

	assert.Equal(t, 1, calls)
	assert.Equal(t, "c1", w.Creative().ID)
}

func TestBookingClosedBeforeCreative(t *testing.T) {
	calls := 0
	w := New(func() { calls++ })

	w.BookingClosed()
	assert.Equal(t, 0, calls, "the creative step is still visible")

	w.CreativeCancelled()
	assert.Equal(t, 1, calls)
}
