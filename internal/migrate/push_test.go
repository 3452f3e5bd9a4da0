package migrate_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"wa-go/internal/migrate"
)

func TestService_Push(t *testing.T) {
	ctx := context.Background()

	withLocalData := func(t *testing.T) string {
		t.Helper()
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "WhatsApp", "Databases", "msgstore.db.crypt15"), "m")
		return root
	}

	t.Run("pushes the WhatsApp folder into the media root", func(t *testing.T) {
		f := newFixture(t)
		root := withLocalData(t)

		rep, err := f.svc.Push(ctx, root, "R58M", false)
		if err != nil {
			t.Fatalf("Push() error = %v", err)
		}

		if len(f.transport.MadeDirs) != 1 || f.transport.MadeDirs[0] != "/sdcard/Android/media/com.whatsapp" {
			t.Errorf("MadeDirs = %v", f.transport.MadeDirs)
		}
		want := []struct{ sel, local, remote string }{
			{"R58M", filepath.Join(root, "WhatsApp"), "/sdcard/Android/media/com.whatsapp"},
		}
		if len(f.transport.Pushes) != 1 {
			t.Fatalf("Pushes = %+v", f.transport.Pushes)
		}
		p := f.transport.Pushes[0]
		if p.Selector != want[0].sel || p.Local != want[0].local || p.Remote != want[0].remote {
			t.Errorf("push = %+v, want %+v", p, want[0])
		}
		if len(rep.Found()) != 1 || rep.Found()[0].Path != remoteRoot {
			t.Errorf("Found() = %v", rep.Found())
		}
	})

	t.Run("fails without local data", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Push(ctx, t.TempDir(), "", false)
		if !errors.Is(err, migrate.ErrNotFound) {
			t.Fatalf("Push() error = %v, want ErrNotFound", err)
		}
		if len(f.transport.Pushes) != 0 || len(f.transport.MadeDirs) != 0 {
			t.Error("device touched without local data")
		}
	})

	t.Run("dry run without local data continues", func(t *testing.T) {
		f := newFixture(t)

		if _, err := f.svc.Push(ctx, t.TempDir(), "", true); err != nil {
			t.Fatalf("Push() error = %v", err)
		}
		if len(f.transport.Pushes) != 0 || len(f.transport.MadeDirs) != 0 {
			t.Error("dry run touched the device")
		}
	})

	t.Run("fails without a device", func(t *testing.T) {
		f := newFixture(t)
		f.transport.SetConnected("GONE", false)

		_, err := f.svc.Push(ctx, withLocalData(t), "GONE", false)
		if !errors.Is(err, migrate.ErrPrecondition) {
			t.Fatalf("Push() error = %v, want ErrPrecondition", err)
		}
		if len(f.transport.MadeDirs) != 0 {
			t.Error("mkdir attempted without a device")
		}
	})

	t.Run("fails when the target cannot be created", func(t *testing.T) {
		f := newFixture(t)
		f.transport.MakeDirErr = errors.New("Permission denied")

		_, err := f.svc.Push(ctx, withLocalData(t), "", false)
		if !errors.Is(err, migrate.ErrToolFailed) {
			t.Fatalf("Push() error = %v, want ErrToolFailed", err)
		}
		if len(f.transport.Pushes) != 0 {
			t.Error("push attempted after mkdir failed")
		}
	})

	t.Run("fails when the transfer fails", func(t *testing.T) {
		f := newFixture(t)
		f.transport.PushErr = errors.New("device offline")

		_, err := f.svc.Push(ctx, withLocalData(t), "", false)
		if !errors.Is(err, migrate.ErrToolFailed) {
			t.Fatalf("Push() error = %v, want ErrToolFailed", err)
		}
		var se *migrate.StageError
		if !errors.As(err, &se) || se.Stage != migrate.StagePush {
			t.Errorf("error %v should be a push StageError", err)
		}
	})
}
