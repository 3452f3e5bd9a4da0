package migrate_test

import (
	"os"
	"path/filepath"
	"testing"

	"wa-go/internal/config"
	"wa-go/internal/migrate"
	"wa-go/internal/testutil"
)

const (
	testKey    = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	remoteRoot = "/sdcard/Android/media/com.whatsapp/WhatsApp"
)

type fixture struct {
	transport *testutil.FakeTransport
	decrypter *testutil.RecordingDecrypter
	parser    *testutil.StubCardParser
	verifier  *testutil.StubVerifier
	svc       *migrate.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		transport: testutil.NewFakeTransport(),
		decrypter: testutil.NewRecordingDecrypter(),
		parser:    &testutil.StubCardParser{},
		verifier:  &testutil.StubVerifier{Tables: 3},
	}
	f.svc = migrate.NewService(f.transport, f.decrypter, f.parser, f.verifier,
		migrate.NewNopLogger(), testutil.FixedClock(), migrate.RemoteLayout{AppID: config.DefaultAppID})
	return f
}

// seedPhone puts a complete backup set on the fake device.
func (f *fixture) seedPhone() {
	f.transport.AddFile("/sdcard/Download/contacts.vcf", []byte("BEGIN:VCARD\nFN:Ana\nEND:VCARD\n"))
	f.transport.AddFile(remoteRoot+"/Databases/msgstore.db.crypt15", []byte("msgstore"))
	f.transport.AddFile(remoteRoot+"/Databases/wa.db.crypt15", []byte("wadb"))
	f.transport.AddFile(remoteRoot+"/Backups/chatsettingsbackup.db.crypt15", []byte("settings"))
	f.transport.AddFile(remoteRoot+"/Media/WhatsApp Images/IMG-1.jpg", []byte("jpg"))
}

func settings(t *testing.T, cfg *config.Config, o config.Overrides) *config.Settings {
	t.Helper()
	st, err := config.Resolve(cfg, o, t.TempDir())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	return st
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func mkdir(path string) error { return os.MkdirAll(path, 0755) }
