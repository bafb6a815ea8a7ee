package catalog

import "time"

// Account is the authenticated identity the gateway hands the pipeline.
// It is built once at the HTTP boundary and passed through every stage.
type Account struct {
	ID                 string
	Login              string
	BitrateCeilingKbps int64
}

// Destination is a named storage/streaming location owned by an account,
// with its own capacity quota. Known as a "folder" in the UI.
type Destination struct {
	ID         string
	AccountID  string
	Name       string
	ServerID   string
	CapacityMB int64
	UsedMB     int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AvailableMB reports the unreserved capacity.
func (d *Destination) AvailableMB() int64 {
	return d.CapacityMB - d.UsedMB
}

// Video is the persisted record of a placed media file.
type Video struct {
	ID            string
	Name          string
	RelativePath  string
	RemotePath    string
	DurationS     int64
	SizeBytes     int64
	AccountID     string
	DestinationID string
	BitrateKbps   int64
	Format        string
	Codec         string
	Width         int
	Height        int
	IsMP4         bool
	Compatible    bool
	CreatedAt     time.Time
}
