package models

type Creative struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	DownloadLink string  `json:"downloadLink,omitempty"`
	CreatedBy    string  `json:"createdBy,omitempty"`
	ThumbnailURL string  `json:"thumbnailUrl,omitempty"`
	Duration     float64 `json:"duration,omitempty"`
}

type AdBoard struct {
	ID        string `json:"id"`
	BoardName string `json:"boardName"`
}

// BoardOption is an ad board shaped for a select input.
type BoardOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Option maps the board to its select option.
func (b AdBoard) Option() BoardOption {
	return BoardOption{Value: b.ID, Label: b.BoardName}
}

type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

// Toast is a user-facing notification raised by an editor operation.
type Toast struct {
	Message string    `json:"message"`
	Kind    ToastKind `json:"kind"`
}
