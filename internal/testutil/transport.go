package testutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"wa-go/internal/migrate"
)

// RemoteFile is a file or directory on the fake device.
type RemoteFile struct {
	Content     []byte
	IsDirectory bool
}

// PullCall records one FakeTransport.Pull.
type PullCall struct {
	Selector, Remote, Local string
}

// PushCall records one FakeTransport.Push.
type PushCall struct {
	Selector, Local, Remote string
}

// FakeTransport is an in-memory device. Pull writes real files under the
// given local path so stages can be checked against the local filesystem.
type FakeTransport struct {
	mu sync.Mutex

	files     map[string]*RemoteFile
	connected map[string]bool
	online    bool

	DeviceList []migrate.Device
	ListErr    error
	PullErrs   map[string]error // by remote path
	TestErr    error
	MakeDirErr error
	PushErr    error

	// BeforePull runs at the start of every Pull, outside the lock.
	BeforePull func(remote string)

	Pulls    []PullCall
	Pushes   []PushCall
	MadeDirs []string
	Tested   []string
}

// NewFakeTransport returns a connected device with no files.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{
		files:     make(map[string]*RemoteFile),
		connected: make(map[string]bool),
		online:    true,
		PullErrs:  make(map[string]error),
	}
}

// AddFile puts a regular file on the device, creating its parent directories.
func (f *FakeTransport) AddFile(remote string, content []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addParents(remote)
	f.files[remote] = &RemoteFile{Content: content}
}

// AddDirectory creates a directory (and its parents) on the device.
func (f *FakeTransport) AddDirectory(remote string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addParents(remote)
	f.files[remote] = &RemoteFile{IsDirectory: true}
}

func (f *FakeTransport) addParents(remote string) {
	for dir := path.Dir(remote); dir != "/" && dir != "."; dir = path.Dir(dir) {
		if _, ok := f.files[dir]; !ok {
			f.files[dir] = &RemoteFile{IsDirectory: true}
		}
	}
}

// SetConnected overrides reachability for one selector. By default every
// selector is reachable until Disconnect is called.
func (f *FakeTransport) SetConnected(selector string, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected[selector] = ok
}

// Disconnect makes every selector unreachable.
func (f *FakeTransport) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online = false
}

func (f *FakeTransport) ListDevices(ctx context.Context) ([]migrate.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]migrate.Device(nil), f.DeviceList...), nil
}

func (f *FakeTransport) IsConnected(ctx context.Context, selector string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.isConnected(selector)
}

func (f *FakeTransport) isConnected(selector string) bool {
	if ok, set := f.connected[selector]; set {
		return ok
	}
	return f.online
}

func (f *FakeTransport) Pull(ctx context.Context, selector, remote, local string) error {
	if f.BeforePull != nil {
		f.BeforePull(remote)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.Pulls = append(f.Pulls, PullCall{Selector: selector, Remote: remote, Local: local})

	// adb is killed with the context, so the transfer fails.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("adb pull %s: %w", remote, err)
	}

	if err := f.PullErrs[remote]; err != nil {
		return err
	}
	if !f.isConnected(selector) {
		return errors.New("error: no devices/emulators found")
	}

	file, ok := f.files[remote]
	if !ok {
		return fmt.Errorf("adb: error: failed to stat remote object '%s': No such file or directory", remote)
	}

	// Like adb, pulling into an existing directory places the item inside it.
	dest := local
	if info, err := os.Stat(local); err == nil && info.IsDir() {
		dest = filepath.Join(local, path.Base(remote))
	}

	if !file.IsDirectory {
		return writeLocal(dest, file.Content)
	}

	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}
	prefix := remote + "/"
	for p, child := range f.files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		target := filepath.Join(dest, filepath.FromSlash(strings.TrimPrefix(p, prefix)))
		if child.IsDirectory {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}
		if err := writeLocal(target, child.Content); err != nil {
			return err
		}
	}
	return nil
}

func writeLocal(dest string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	return os.WriteFile(dest, content, 0644)
}

func (f *FakeTransport) Push(ctx context.Context, selector, local, remote string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Pushes = append(f.Pushes, PushCall{Selector: selector, Local: local, Remote: remote})

	if f.PushErr != nil {
		return f.PushErr
	}
	if !f.isConnected(selector) {
		return errors.New("error: no devices/emulators found")
	}
	f.files[path.Join(remote, filepath.Base(local))] = &RemoteFile{IsDirectory: true}
	return nil
}

func (f *FakeTransport) TestPath(ctx context.Context, selector, remote string, kind migrate.PathKind) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Tested = append(f.Tested, remote)

	if f.TestErr != nil {
		return false, f.TestErr
	}
	file, ok := f.files[remote]
	if !ok {
		return false, nil
	}
	if kind == migrate.Directory {
		return file.IsDirectory, nil
	}
	return !file.IsDirectory, nil
}

func (f *FakeTransport) MakeDir(ctx context.Context, selector, remote string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MadeDirs = append(f.MadeDirs, remote)

	if f.MakeDirErr != nil {
		return f.MakeDirErr
	}
	f.addParents(remote)
	f.files[remote] = &RemoteFile{IsDirectory: true}
	return nil
}

// PulledRemotes returns the remote paths of every Pull call, in call order.
func (f *FakeTransport) PulledRemotes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Pulls))
	for i, p := range f.Pulls {
		out[i] = p.Remote
	}
	return out
}

// RemotePaths lists every path on the device, sorted.
func (f *FakeTransport) RemotePaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.files))
	for p := range f.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

var _ migrate.Transport = (*FakeTransport)(nil)
