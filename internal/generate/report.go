package generate

import (
	"path/filepath"
	"time"

	ferrors "git.home.luguber.info/inful/refdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/refdocs/internal/manifest"
	"git.home.luguber.info/inful/refdocs/internal/tree"
)

// writeReport records the run next to the manifest.
func (s *Service) writeReport(run *tree.Run, opts Options, result *Result, start time.Time, runErr error) error {
	r := buildReport(run, opts, result, start)
	r.Duration = s.now().Sub(start).Milliseconds()
	if runErr != nil {
		r.Errors = append(r.Errors, runErr.Error())
	}
	result.Report = r
	result.ReportPath = filepath.Join(run.OutputRoot, manifest.ReportFile)
	if err := r.WriteFile(result.ReportPath); err != nil {
		return ferrors.FileSystemError("failed to write run report").
			WithCause(err).
			WithContext("path", result.ReportPath).
			Build()
	}
	return nil
}

func buildReport(run *tree.Run, opts Options, result *Result, start time.Time) *manifest.RunReport {
	spec := result.Spec
	r := &manifest.RunReport{
		ID:        run.ID,
		Timestamp: start.UTC(),
		Status:    result.Status,
		Inputs: manifest.Inputs{
			ConfigPath:  opts.ConfigPath,
			ConfigHash:  spec.Hash(),
			LibraryRoot: spec.Global.LibraryRoot,
			LibraryName: spec.Global.LibraryName,
			Commit:      result.Revision.Commit,
			Branch:      result.Revision.Branch,
		},
		Sections: sectionSummaries(result),
	}

	w := result.Write
	r.Outputs = manifest.Outputs{
		BaseDir:      spec.Global.DirName,
		Manifest:     spec.Global.Manifest,
		PagesWritten: w.PagesWritten,
		PurgedDirs:   w.PurgedDirs,
		ExternalDirs: w.ExternalDirs,
	}
	for _, f := range w.Failed {
		r.Outputs.Failed = append(r.Outputs.Failed, manifest.Failure{
			Path:    f.Path,
			Section: f.Section,
			Symbol:  f.Symbol,
			Message: f.Message,
		})
	}
	for _, c := range w.Collisions {
		mc := manifest.Collision{Path: c.Path}
		for _, cl := range c.Claimants {
			mc.Claimants = append(mc.Claimants, cl.String())
		}
		r.Outputs.Collisions = append(r.Outputs.Collisions, mc)
	}
	for _, l := range result.BrokenLinks {
		r.Outputs.BrokenLinks = append(r.Outputs.BrokenLinks, l.String())
	}
	return r
}

func sectionSummaries(result *Result) []manifest.Section {
	out := make([]manifest.Section, 0, len(result.Resolutions))
	for i, res := range result.Resolutions {
		sec := manifest.Section{Name: res.Section.Name}
		if i < len(result.Plans) {
			sec.Pages = len(result.Plans[i].AllPages())
		}
		for _, sym := range res.Symbols {
			if sym.Imported {
				sec.Imported++
			}
		}
		for _, w := range res.Warnings {
			sec.Warnings = append(sec.Warnings, w.String())
		}
		out = append(out, sec)
	}
	return out
}
