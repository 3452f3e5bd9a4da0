package migrate

import (
	"os"
	"path"
	"path/filepath"
)

// Names shared by the local working directory and the device layout.
const (
	WhatsAppDirName  = "WhatsApp"
	DatabasesDirName = "Databases"
	BackupsDirName   = "Backups"
	MediaDirName     = "Media"

	MsgstoreCryptName = "msgstore.db.crypt15"
	WaDBCryptName     = "wa.db.crypt15"
	MsgstoreDBName    = "msgstore.db"
	WaDBName          = "wa.db"
	ContactsVCFName   = "contacts.vcf"
	ContactsJSONName  = "contacts.json"
)

// ContactCandidates are the on-device locations of an exported contact file,
// in priority order.
var ContactCandidates = []string{
	"/sdcard/Download/contacts.vcf",
	"/sdcard/contacts.vcf",
}

// Layout is the local working directory of one migration session:
//
//	<root>/
//	  WhatsApp/{Databases,Backups,Media}
//	  contacts.vcf, contacts.json
//	  msgstore.db, wa.db
type Layout struct {
	Root string
}

func (l Layout) WhatsAppDir() string  { return filepath.Join(l.Root, WhatsAppDirName) }
func (l Layout) DatabasesDir() string { return filepath.Join(l.WhatsAppDir(), DatabasesDirName) }
func (l Layout) BackupsDir() string   { return filepath.Join(l.WhatsAppDir(), BackupsDirName) }
func (l Layout) MediaDir() string     { return filepath.Join(l.WhatsAppDir(), MediaDirName) }
func (l Layout) ContactsVCF() string  { return filepath.Join(l.Root, ContactsVCFName) }
func (l Layout) ContactsJSON() string { return filepath.Join(l.Root, ContactsJSONName) }
func (l Layout) MsgstoreDB() string   { return filepath.Join(l.Root, MsgstoreDBName) }
func (l Layout) WaDB() string         { return filepath.Join(l.Root, WaDBName) }

// MsgstoreCrypt is the single known location of the primary message store.
func (l Layout) MsgstoreCrypt() string {
	return filepath.Join(l.DatabasesDir(), MsgstoreCryptName)
}

// WaDBCryptCandidates lists where the secondary database may have been
// pulled to: the Databases folder first, then the backup archive folder.
func (l Layout) WaDBCryptCandidates() []string {
	return []string{
		filepath.Join(l.DatabasesDir(), WaDBCryptName),
		filepath.Join(l.BackupsDir(), WaDBCryptName),
	}
}

// RemoteLayout is the on-device layout for one application id.
type RemoteLayout struct {
	AppID string
}

// MediaRoot is the application's media folder, the push target.
func (r RemoteLayout) MediaRoot() string {
	return path.Join("/sdcard/Android/media", r.AppID)
}

// Root is the WhatsApp data root everything is pulled from.
func (r RemoteLayout) Root() string {
	return path.Join(r.MediaRoot(), WhatsAppDirName)
}

func (r RemoteLayout) BackupsDir() string { return path.Join(r.Root(), BackupsDirName) }
func (r RemoteLayout) MediaDir() string   { return path.Join(r.Root(), MediaDirName) }

func (r RemoteLayout) MsgstoreCrypt() string {
	return path.Join(r.Root(), DatabasesDirName, MsgstoreCryptName)
}

// WaDBCryptCandidates mirrors Layout.WaDBCryptCandidates on the device.
func (r RemoteLayout) WaDBCryptCandidates() []string {
	return []string{
		path.Join(r.Root(), DatabasesDirName, WaDBCryptName),
		path.Join(r.Root(), BackupsDirName, WaDBCryptName),
	}
}

// fileExists is the local existence check used by Decrypt and Convert.
func fileExists(p string) (bool, error) {
	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
