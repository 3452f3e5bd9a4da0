package migrate_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"wa-go/internal/config"
	"wa-go/internal/migrate"
)

func TestService_Pull(t *testing.T) {
	ctx := context.Background()

	t.Run("pulls the full backup set", func(t *testing.T) {
		f := newFixture(t)
		f.seedPhone()
		out := t.TempDir()
		st := settings(t, &config.Config{Output: out}, config.Overrides{})

		rep, err := f.svc.Pull(ctx, st, "")
		if err != nil {
			t.Fatalf("Pull() error = %v", err)
		}
		if rep.Warned() {
			t.Errorf("Pull() warnings = %v, want none", rep.Warnings)
		}

		local := migrate.Layout{Root: out}
		for _, p := range []string{
			local.ContactsVCF(),
			local.MsgstoreCrypt(),
			filepath.Join(local.DatabasesDir(), "wa.db.crypt15"),
			filepath.Join(local.BackupsDir(), "chatsettingsbackup.db.crypt15"),
			filepath.Join(local.MediaDir(), "WhatsApp Images", "IMG-1.jpg"),
		} {
			if !exists(p) {
				t.Errorf("expected %s to be pulled", p)
			}
		}
	})

	t.Run("fails without a device", func(t *testing.T) {
		f := newFixture(t)
		f.seedPhone()
		f.transport.Disconnect()
		st := settings(t, &config.Config{}, config.Overrides{})

		_, err := f.svc.Pull(ctx, st, "")
		if !errors.Is(err, migrate.ErrPrecondition) {
			t.Fatalf("Pull() error = %v, want ErrPrecondition", err)
		}
		if len(f.transport.Pulls) != 0 {
			t.Errorf("pulled %v after failed connection check", f.transport.PulledRemotes())
		}
	})

	t.Run("refuses a non-empty WhatsApp folder", func(t *testing.T) {
		f := newFixture(t)
		f.seedPhone()
		out := t.TempDir()
		writeFile(t, filepath.Join(out, "WhatsApp", "Databases", "old.crypt15"), "old")
		st := settings(t, &config.Config{Output: out}, config.Overrides{})

		_, err := f.svc.Pull(ctx, st, "")
		if !errors.Is(err, migrate.ErrPrecondition) {
			t.Fatalf("Pull() error = %v, want ErrPrecondition", err)
		}
		if len(f.transport.Pulls) != 0 {
			t.Errorf("pulled %v into a populated folder", f.transport.PulledRemotes())
		}
	})

	t.Run("accepts an existing empty WhatsApp folder", func(t *testing.T) {
		f := newFixture(t)
		f.seedPhone()
		out := t.TempDir()
		if err := mkdir(filepath.Join(out, "WhatsApp")); err != nil {
			t.Fatal(err)
		}
		st := settings(t, &config.Config{Output: out}, config.Overrides{})

		if _, err := f.svc.Pull(ctx, st, ""); err != nil {
			t.Fatalf("Pull() error = %v", err)
		}
		if !exists(filepath.Join(out, "WhatsApp", "Databases")) {
			t.Error("Databases folder was not created")
		}
	})

	t.Run("fails when the remote WhatsApp folder is missing", func(t *testing.T) {
		f := newFixture(t)
		f.transport.AddFile("/sdcard/contacts.vcf", []byte("BEGIN:VCARD\nEND:VCARD\n"))
		out := t.TempDir()
		st := settings(t, &config.Config{Output: out}, config.Overrides{})

		_, err := f.svc.Pull(ctx, st, "")
		if !errors.Is(err, migrate.ErrPrecondition) {
			t.Fatalf("Pull() error = %v, want ErrPrecondition", err)
		}
		// contacts come before the root check
		if !exists(filepath.Join(out, "contacts.vcf")) {
			t.Error("contacts.vcf should be pulled before the root check")
		}
	})

	t.Run("missing contacts is a warning", func(t *testing.T) {
		f := newFixture(t)
		f.transport.AddDirectory(remoteRoot)
		st := settings(t, &config.Config{}, config.Overrides{})

		rep, err := f.svc.Pull(ctx, st, "")
		if err != nil {
			t.Fatalf("Pull() error = %v", err)
		}
		if !rep.Warned() {
			t.Error("Pull() expected warnings")
		}
		if rep.Outcomes[0].Kind != migrate.OutcomeNotFound {
			t.Errorf("contacts outcome = %v, want not found", rep.Outcomes[0])
		}
	})

	t.Run("contacts fall back to the second location", func(t *testing.T) {
		f := newFixture(t)
		f.transport.AddDirectory(remoteRoot)
		f.transport.AddFile("/sdcard/contacts.vcf", []byte("x"))
		out := t.TempDir()
		st := settings(t, &config.Config{Output: out}, config.Overrides{})

		if _, err := f.svc.Pull(ctx, st, ""); err != nil {
			t.Fatalf("Pull() error = %v", err)
		}
		remotes := f.transport.PulledRemotes()
		if len(remotes) == 0 || remotes[0] != "/sdcard/contacts.vcf" {
			t.Errorf("first pull = %v, want /sdcard/contacts.vcf", remotes)
		}
	})

	t.Run("wa.db falls back to Backups", func(t *testing.T) {
		f := newFixture(t)
		f.transport.AddFile(remoteRoot+"/Databases/msgstore.db.crypt15", []byte("m"))
		f.transport.AddFile(remoteRoot+"/Backups/wa.db.crypt15", []byte("w"))
		out := t.TempDir()
		st := settings(t, &config.Config{Output: out}, config.Overrides{})

		rep, err := f.svc.Pull(ctx, st, "")
		if err != nil {
			t.Fatalf("Pull() error = %v", err)
		}
		if !exists(filepath.Join(out, "WhatsApp", "Databases", "wa.db.crypt15")) {
			t.Error("wa.db.crypt15 was not pulled into Databases")
		}

		var wadb migrate.Outcome
		for _, o := range rep.Outcomes {
			if o.Item == "wa.db.crypt15" {
				wadb = o
			}
		}
		if !wadb.Found() || wadb.Path != remoteRoot+"/Backups/wa.db.crypt15" {
			t.Errorf("wa.db outcome = %v, want found in Backups", wadb)
		}
	})

	t.Run("missing databases are warnings", func(t *testing.T) {
		f := newFixture(t)
		f.transport.AddDirectory(remoteRoot)
		st := settings(t, &config.Config{}, config.Overrides{})

		rep, err := f.svc.Pull(ctx, st, "")
		if err != nil {
			t.Fatalf("Pull() error = %v", err)
		}
		// contacts, msgstore, wa.db, Backups, Media
		if len(rep.Warnings) != 5 {
			t.Errorf("len(Warnings) = %d, want 5: %v", len(rep.Warnings), rep.Warnings)
		}
	})

	t.Run("device override beats configured pull device", func(t *testing.T) {
		f := newFixture(t)
		f.seedPhone()
		f.transport.SetConnected("OLD", false)
		st := settings(t, &config.Config{PullDevice: "OLD"}, config.Overrides{})

		if _, err := f.svc.Pull(ctx, st, "NEW"); err != nil {
			t.Fatalf("Pull() error = %v", err)
		}
		for _, p := range f.transport.Pulls {
			if p.Selector != "NEW" {
				t.Errorf("pull of %s used selector %q, want NEW", p.Remote, p.Selector)
			}
		}
	})

	t.Run("dry run transfers nothing", func(t *testing.T) {
		f := newFixture(t)
		f.seedPhone()
		out := t.TempDir()
		st := settings(t, &config.Config{Output: out, DryRun: true}, config.Overrides{})

		rep, err := f.svc.Pull(ctx, st, "")
		if err != nil {
			t.Fatalf("Pull() error = %v", err)
		}
		if len(f.transport.Pulls) != 0 {
			t.Errorf("dry run pulled %v", f.transport.PulledRemotes())
		}
		if exists(filepath.Join(out, "WhatsApp")) {
			t.Error("dry run created the WhatsApp folder")
		}
		if len(rep.Found()) != 5 {
			t.Errorf("dry run found %d items, want 5", len(rep.Found()))
		}
	})
}

func TestService_Pull_CancelledContext(t *testing.T) {
	f := newFixture(t)
	f.seedPhone()
	st := settings(t, &config.Config{Output: t.TempDir()}, config.Overrides{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Pull(ctx, st, "")
	if !errors.Is(err, migrate.ErrInterrupted) {
		t.Fatalf("Pull() error = %v, want ErrInterrupted", err)
	}
	if n := len(f.transport.PulledRemotes()); n != 0 {
		t.Errorf("pulled %d paths after the context was cancelled, want 0", n)
	}
}
