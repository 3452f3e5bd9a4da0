package migrate

import "context"

// Device is one entry of the attached-device listing.
type Device struct {
	ID    string `json:"id"`
	State string `json:"state"`
	Model string `json:"model"`
}

// PathKind selects the remote existence test.
type PathKind int

const (
	RegularFile PathKind = iota
	Directory
)

// Transport moves files between the workstation and an attached Android device.
// An empty selector addresses the single attached device.
// Every call blocks until the underlying tool returns; there are no retries.
type Transport interface {
	// ListDevices returns every device the bridge reports, in listing order.
	ListDevices(ctx context.Context) ([]Device, error)

	// IsConnected reports whether selector names a reachable device.
	IsConnected(ctx context.Context, selector string) bool

	// Pull copies remote (file or directory) to local.
	Pull(ctx context.Context, selector, remote, local string) error

	// Push copies local (file or directory) into remote.
	Push(ctx context.Context, selector, local, remote string) error

	// TestPath reports whether remote exists on the device as the given kind.
	// Absence is (false, nil); an error means the check itself failed.
	TestPath(ctx context.Context, selector, remote string, kind PathKind) (bool, error)

	// MakeDir creates remote and any missing parents.
	MakeDir(ctx context.Context, selector, remote string) error
}
