package domain

// Record is the unit of transfer. Records are immutable after creation;
// identity is the ID, which is unique and monotonically increasing within
// a dataset.
type Record struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Category string `json:"category" db:"category"`
	Payload  string `json:"payload" db:"payload"`
	Checksum string `json:"checksum" db:"checksum"`
	Origin   string `json:"origin" db:"origin"`
}
