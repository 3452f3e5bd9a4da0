package migrate

import (
	"context"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"wa-go/internal/config"
)

// KeyLength is the length of a well-formed hex encoded backup key.
const KeyLength = 64

// ValidKey reports whether key looks like a 64 digit hex string.
func ValidKey(key string) bool {
	if len(key) != KeyLength {
		return false
	}
	_, err := hex.DecodeString(key)
	return err == nil
}

type decryptJob struct {
	source Outcome
	out    string
}

// Decrypt decrypts msgstore.db.crypt15 and wa.db.crypt15 found under the
// input directory into plain databases at its root.
//
// The only hard failure is a missing key (ErrNoKey). Missing files are
// warnings, and a failing decryption is reported per file without stopping
// the others.
func (s *Service) Decrypt(ctx context.Context, st *config.Settings, inputOverride, keyOverride string) (*Report, error) {
	rep := s.newReport(StageDecrypt)
	defer s.finish(rep)

	dryRun := st.DryRun()
	key := firstNonEmpty(keyOverride, st.Key())
	if key == "" {
		return rep, stageErr(StageDecrypt, KindConfig, "", ErrNoKey)
	}
	if !ValidKey(key) {
		s.warn(rep, "key does not look like a 64 digit hex string, attempting anyway")
	}

	in := firstNonEmpty(inputOverride, st.Input())
	abs, err := filepath.Abs(in)
	if err != nil {
		return rep, stageErr(StageDecrypt, KindIO, in, fmt.Errorf("resolving input directory: %w", err))
	}
	in = abs
	local := Layout{Root: in}
	s.logger.Info("decrypting databases", "input", in, "dry_run", dryRun)

	var jobs []decryptJob

	msgstore := FirstExisting(MsgstoreCryptName, []string{local.MsgstoreCrypt()}, fileExists)
	switch {
	case msgstore.Found():
		s.logger.Info("found msgstore", "path", msgstore.Path)
		jobs = append(jobs, decryptJob{source: msgstore, out: local.MsgstoreDB()})
	case dryRun:
		s.logger.Info("main database not present yet", "path", local.MsgstoreCrypt())
		rep.Outcomes = append(rep.Outcomes, msgstore)
	default:
		s.warn(rep, "main database not found", "path", local.MsgstoreCrypt())
		rep.Outcomes = append(rep.Outcomes, msgstore)
	}

	wadb := FirstExisting(WaDBCryptName, local.WaDBCryptCandidates(), fileExists)
	switch {
	case wadb.Found():
		s.logger.Info("found wa.db", "path", wadb.Path)
		jobs = append(jobs, decryptJob{source: wadb, out: local.WaDB()})
	case dryRun:
		s.logger.Info("wa.db.crypt15 not present yet")
		rep.Outcomes = append(rep.Outcomes, wadb)
	default:
		s.warn(rep, "wa.db.crypt15 not found, skipping wa.db decryption")
		rep.Outcomes = append(rep.Outcomes, wadb)
	}

	if len(jobs) == 0 {
		return rep, nil
	}

	var ensureErr error
	if dryRun {
		s.logger.Info("would ensure decryption tool is available")
	} else if ensureErr = s.decrypter.Ensure(ctx); ensureErr != nil {
		s.logger.Error("decryption tool unavailable", "error", ensureErr)
	}

	for _, job := range jobs {
		if err := interrupted(ctx, StageDecrypt); err != nil {
			return rep, err
		}
		rep.Outcomes = append(rep.Outcomes, s.decryptOne(ctx, rep, key, job, ensureErr, dryRun))
	}
	return rep, interrupted(ctx, StageDecrypt)
}

func (s *Service) decryptOne(ctx context.Context, rep *Report, key string, job decryptJob, ensureErr error, dryRun bool) Outcome {
	name := job.source.Item
	in := job.source.Path
	s.logger.Info("decrypting", "item", name)

	if dryRun {
		s.logger.Info("would run decryption", "key", "<KEY>", "in", in, "out", job.out)
		return Found(name, job.out)
	}
	if ensureErr != nil {
		s.warn(rep, "failed to decrypt "+name, "error", ensureErr)
		return ToolError(name, in, stageErr(StageDecrypt, KindToolError, in, ensureErr))
	}

	if err := s.decrypter.Decrypt(ctx, key, in, job.out); err != nil {
		s.logger.Error("failed to decrypt", "item", name, "error", err)
		rep.Warnings = append(rep.Warnings, "failed to decrypt "+name)
		return ToolError(name, in, stageErr(StageDecrypt, KindToolError, in, err))
	}

	if s.verifier != nil {
		tables, err := s.verifier.Verify(job.out)
		if err != nil {
			s.logger.Error("decrypted database is not readable", "path", job.out, "error", err)
			rep.Warnings = append(rep.Warnings, "decrypted "+name+" is not readable")
			return ToolError(name, job.out, stageErr(StageDecrypt, KindToolError, job.out, err))
		}
		s.logger.Debug("verified database", "path", job.out, "tables", tables)
	}

	s.logger.Info("decrypted", "item", name, "out", job.out)
	return Found(name, job.out)
}
