package migrate

import (
	"context"
	"errors"
	"os"
)

// Push copies <localRoot>/WhatsApp onto the device under the application's
// media folder. Every check is fatal: no local data, no device, a failed
// mkdir or a failed transfer each stop the stage immediately.
func (s *Service) Push(ctx context.Context, localRoot, selector string, dryRun bool) (*Report, error) {
	rep := s.newReport(StagePush)
	defer s.finish(rep)

	local := Layout{Root: localRoot}
	source := local.WhatsAppDir()

	if _, err := os.Stat(source); err != nil {
		if !os.IsNotExist(err) {
			return rep, stageErr(StagePush, KindIO, source, err)
		}
		if !dryRun {
			return rep, stageErr(StagePush, KindNotFound, source,
				errors.New("local WhatsApp folder not found; the input directory must contain a WhatsApp folder"))
		}
		s.logger.Info("local WhatsApp folder not present yet, assuming an earlier stage creates it", "path", source)
	}
	s.logger.Info("pushing whatsapp data", "source", source, "device", selector, "dry_run", dryRun)

	if err := interrupted(ctx, StagePush); err != nil {
		return rep, err
	}
	s.logger.Info("[1/3] checking device connection")
	if !s.transport.IsConnected(ctx, selector) {
		return rep, stageErr(StagePush, KindPrecondition, "",
			errors.New("no device connected; connect the phone and enable USB debugging"))
	}

	target := s.remote.MediaRoot()
	if err := interrupted(ctx, StagePush); err != nil {
		return rep, err
	}
	s.logger.Info("[2/3] preparing target directory", "target", target)
	if dryRun {
		s.logger.Info("would create remote directory", "path", target)
	} else if err := s.transport.MakeDir(ctx, selector, target); err != nil {
		return rep, stageErr(StagePush, KindToolError, target, err)
	}

	if err := interrupted(ctx, StagePush); err != nil {
		return rep, err
	}
	s.logger.Info("[3/3] pushing files, this may take a while")
	if dryRun {
		s.logger.Info("would push", "local", source, "remote", target)
		rep.Outcomes = append(rep.Outcomes, Found(WhatsAppDirName, s.remote.Root()))
		return rep, nil
	}
	if err := s.transport.Push(ctx, selector, source, target); err != nil {
		if ierr := interrupted(ctx, StagePush); ierr != nil {
			return rep, ierr
		}
		return rep, stageErr(StagePush, KindToolError, target, err)
	}
	rep.Outcomes = append(rep.Outcomes, Found(WhatsAppDirName, s.remote.Root()))

	s.logger.Info("data pushed to device", "path", s.remote.Root())
	for i, step := range RestoreSteps {
		s.logger.Info("next step", "n", i+1, "do", step)
	}
	return rep, nil
}

// RestoreSteps is what the user does on the phone after a push.
var RestoreSteps = []string{
	"Force stop WhatsApp on the device.",
	"Clear cache (and maybe data) for WhatsApp.",
	"Open WhatsApp and verify restoration.",
}
