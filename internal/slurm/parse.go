package slurm

import (
	"strings"

	"github.com/altius/slurm-proxy/internal/models"
)

// sacct with --parsable2 emits one pipe-delimited record per line, columns in
// the pinned format order. Batch and step rows repeat the job; only the first
// line describes the job itself.

// ParseJobSnapshot parses the first accounting record from sacct output.
// Empty output means the scheduler has no record of the job and returns nil.
func ParseJobSnapshot(out string) *models.JobSnapshot {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil
	}
	line, _, _ := strings.Cut(out, "\n")
	return parseLine(line)
}

// ParseJobSnapshots parses every accounting record in sacct output.
func ParseJobSnapshots(out string) []models.JobSnapshot {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil
	}
	var snaps []models.JobSnapshot
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if snap := parseLine(line); snap != nil {
			snaps = append(snaps, *snap)
		}
	}
	return snaps
}

func parseLine(line string) *models.JobSnapshot {
	fields := strings.Split(line, "|")
	if len(fields) < 9 {
		return nil
	}
	return &models.JobSnapshot{
		JobID:     fields[0],
		JobName:   fields[1],
		State:     models.CanonicalizeState(fields[2]),
		User:      fields[3],
		Partition: fields[4],
		TimeLimit: fields[5],
		Start:     fields[6],
		End:       fields[7],
		Elapsed:   fields[8],
	}
}
