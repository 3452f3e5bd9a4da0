package migrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"wa-go/internal/config"
)

// Pull copies the WhatsApp data set from the device into st.Output().
// deviceOverride, when set, beats the configured pull device.
//
// A missing device, a non-empty local WhatsApp folder or a missing remote
// data root stop the stage with a *StageError. Everything else (contacts,
// individual databases, the Backups and Media folders) is best effort and
// only adds warnings to the report.
//
// A cancelled ctx stops the stage at the next step with ErrInterrupted.
func (s *Service) Pull(ctx context.Context, st *config.Settings, deviceOverride string) (*Report, error) {
	rep := s.newReport(StagePull)
	defer s.finish(rep)

	selector := firstNonEmpty(deviceOverride, st.PullDevice())
	local := Layout{Root: st.Output()}
	dryRun := st.DryRun()

	s.logger.Info("pulling whatsapp data", "output", local.Root, "device", selector, "dry_run", dryRun)

	s.logger.Info("[1/6] checking device connection")
	if !s.transport.IsConnected(ctx, selector) {
		return rep, stageErr(StagePull, KindPrecondition, "",
			errors.New("no device connected; connect the phone and enable USB debugging"))
	}

	empty, err := dirEmptyOrAbsent(local.WhatsAppDir())
	if err != nil {
		return rep, stageErr(StagePull, KindIO, local.WhatsAppDir(), err)
	}
	if !empty {
		return rep, stageErr(StagePull, KindPrecondition, local.WhatsAppDir(),
			errors.New("destination is not empty, aborting to prevent overwrite"))
	}

	if dryRun {
		s.logger.Info("would create directory", "path", local.DatabasesDir())
	} else if err := os.MkdirAll(local.DatabasesDir(), 0755); err != nil {
		return rep, stageErr(StagePull, KindIO, local.DatabasesDir(), err)
	}

	if err := interrupted(ctx, StagePull); err != nil {
		return rep, err
	}
	s.logger.Info("[2/6] looking for contacts.vcf")
	contacts := FirstExisting(ContactsVCFName, ContactCandidates, s.remoteCheck(ctx, selector, RegularFile))
	switch contacts.Kind {
	case OutcomeFound:
		s.logger.Info("found contacts", "path", contacts.Path)
		contacts = s.pullItem(ctx, rep, selector, contacts, local.ContactsVCF(), dryRun)
	case OutcomeToolError:
		s.warn(rep, "could not check for contacts.vcf", "error", contacts.Err)
	default:
		s.warn(rep, "contacts.vcf not found in standard paths; export contacts to .vcf on the phone to include them")
	}
	rep.Outcomes = append(rep.Outcomes, contacts)

	if err := interrupted(ctx, StagePull); err != nil {
		return rep, err
	}
	s.logger.Info("[3/6] locating whatsapp folder")
	root := s.remote.Root()
	ok, err := s.transport.TestPath(ctx, selector, root, Directory)
	if err != nil {
		return rep, stageErr(StagePull, KindToolError, root, err)
	}
	if !ok {
		return rep, stageErr(StagePull, KindPrecondition, root, errors.New("whatsapp folder not found on device"))
	}
	s.logger.Info("found whatsapp folder", "path", root)

	if err := interrupted(ctx, StagePull); err != nil {
		return rep, err
	}
	s.logger.Info("[4/6] pulling databases")
	msgstore := s.pullItem(ctx, rep, selector, Found(MsgstoreCryptName, s.remote.MsgstoreCrypt()), local.DatabasesDir(), dryRun)
	rep.Outcomes = append(rep.Outcomes, msgstore)
	if err := interrupted(ctx, StagePull); err != nil {
		return rep, err
	}

	// Whichever location answers first lands in the local Databases folder.
	var check CheckFunc
	if dryRun {
		check = s.remoteCheck(ctx, selector, RegularFile)
	} else {
		check = func(candidate string) (bool, error) {
			return s.transport.Pull(ctx, selector, candidate, local.DatabasesDir()) == nil, nil
		}
	}
	wadb := FirstExisting(WaDBCryptName, s.remote.WaDBCryptCandidates(), check)
	if wadb.Found() {
		if dryRun {
			s.logger.Info("would pull", "remote", wadb.Path, "local", local.DatabasesDir())
		} else {
			s.logger.Info("pulled", "item", WaDBCryptName, "remote", wadb.Path)
		}
	} else {
		s.warn(rep, "wa.db.crypt15 not found in Databases or Backups")
	}
	rep.Outcomes = append(rep.Outcomes, wadb)

	if err := interrupted(ctx, StagePull); err != nil {
		return rep, err
	}
	s.logger.Info("[5/6] pulling backups folder")
	backups := s.pullItem(ctx, rep, selector, Found(BackupsDirName, s.remote.BackupsDir()), local.WhatsAppDir(), dryRun)
	rep.Outcomes = append(rep.Outcomes, backups)

	if err := interrupted(ctx, StagePull); err != nil {
		return rep, err
	}
	s.logger.Info("[6/6] pulling media folder")
	media := s.pullItem(ctx, rep, selector, Found(MediaDirName, s.remote.MediaDir()), local.WhatsAppDir(), dryRun)
	rep.Outcomes = append(rep.Outcomes, media)
	if err := interrupted(ctx, StagePull); err != nil {
		return rep, err
	}

	s.logger.Info("whatsapp data pulled", "path", local.WhatsAppDir(), "warnings", len(rep.Warnings))
	return rep, nil
}

// pullItem transfers a located remote item, turning a transport failure into
// a warning and a ToolError outcome.
func (s *Service) pullItem(ctx context.Context, rep *Report, selector string, item Outcome, local string, dryRun bool) Outcome {
	if dryRun {
		s.logger.Info("would pull", "remote", item.Path, "local", local)
		return item
	}
	if err := s.transport.Pull(ctx, selector, item.Path, local); err != nil {
		s.warn(rep, fmt.Sprintf("failed to pull %s", item.Item), "remote", item.Path, "error", err)
		return ToolError(item.Item, item.Path, stageErr(StagePull, KindToolError, item.Path, err))
	}
	s.logger.Info("pulled", "item", item.Item, "remote", item.Path)
	return Found(item.Item, local)
}

func (s *Service) remoteCheck(ctx context.Context, selector string, kind PathKind) CheckFunc {
	return func(candidate string) (bool, error) {
		return s.transport.TestPath(ctx, selector, candidate, kind)
	}
}

// dirEmptyOrAbsent reports whether dir does not exist or has no entries.
func dirEmptyOrAbsent(dir string) (bool, error) {
	f, err := os.Open(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if !info.IsDir() {
		return false, nil
	}

	_, err = f.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	return false, err
}
