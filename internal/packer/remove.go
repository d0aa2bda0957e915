package packer

import (
	"errors"
	"fmt"
	"os"

	"github.com/MimeLyc/comic-packer/internal/packerr"
	"github.com/MimeLyc/comic-packer/pkg/log"
)

type removalStrategy struct {
	name   string
	remove func(path string) error
}

// archiveRemovers are tried in order until one succeeds.
var archiveRemovers = []removalStrategy{
	{name: "remove", remove: os.Remove},
	{name: "unlink", remove: unlink},
	{name: "remove-all", remove: os.RemoveAll},
}

var directoryRemovers = []removalStrategy{
	{name: "remove-all", remove: os.RemoveAll},
}

// removeSource deletes the job's source. The returned error is always a
// SourceRemoval warning; the comic itself has already been written.
func removeSource(job ConversionJob) error {
	strategies := directoryRemovers
	if job.SourceKind == SourceArchive {
		strategies = archiveRemovers
	}

	var errs []error
	for _, s := range strategies {
		err := s.remove(job.SourcePath)
		if err == nil {
			log.Debug("Removed source %s (%s)", job.SourcePath, s.name)
			return nil
		}
		log.Debug("Removing %s with %s failed: %v", job.SourcePath, s.name, err)
		errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
	}

	return packerr.Wrap(errors.Join(errs...), packerr.SourceRemoval, "source could not be removed").
		WithContext("source", job.SourcePath)
}
