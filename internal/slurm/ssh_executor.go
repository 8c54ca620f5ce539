package slurm

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/crypto/ssh"

	"github.com/altius/slurm-proxy/internal/common"
	"github.com/altius/slurm-proxy/internal/models"
)

// SSHExecutor runs scheduler commands over a shared SSH connection to the
// cluster head node. The connection is established lazily and re-established
// once per call if it has gone stale. A mutex serializes all remote commands,
// so at most one command is in flight at any time.
type SSHExecutor struct {
	config common.SSHConfig
	logger arbor.ILogger

	mu     sync.Mutex
	client *ssh.Client
}

// NewSSHExecutor creates the executor without connecting. The first command
// establishes the connection.
func NewSSHExecutor(config common.SSHConfig) *SSHExecutor {
	return &SSHExecutor{
		config: config,
		logger: common.GetLogger(),
	}
}

func (e *SSHExecutor) connectLocked() error {
	if e.client != nil {
		return nil
	}

	keyData, err := os.ReadFile(e.config.KeyPath)
	if err != nil {
		return fmt.Errorf("failed to read ssh key %s: %w", e.config.KeyPath, err)
	}
	signer, err := ssh.ParsePrivateKey(keyData)
	if err != nil {
		return fmt.Errorf("failed to parse ssh key: %w", err)
	}

	clientConfig := &ssh.ClientConfig{
		User:            e.config.Username,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         15 * time.Second,
	}

	addr := net.JoinHostPort(e.config.Hostname, strconv.Itoa(e.config.Port))
	client, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	e.logger.Info().Str("host", addr).Str("user", e.config.Username).Msg("SSH connection established")
	e.client = client
	return nil
}

func (e *SSHExecutor) dropLocked() {
	if e.client != nil {
		e.client.Close()
		e.client = nil
	}
}

// run executes one remote command under the connection mutex and returns its
// stdout and stderr. A failure on an established connection drops it and
// retries once on a fresh connection.
func (e *SSHExecutor) run(ctx context.Context, command string) (string, string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	hadClient := e.client != nil
	if err := e.connectLocked(); err != nil {
		return "", "", err
	}

	stdout, stderr, err := e.runSessionLocked(ctx, command)
	if err == nil {
		return stdout, stderr, nil
	}
	if _, exited := err.(*ssh.ExitError); exited || !hadClient {
		return stdout, stderr, err
	}

	// Stale connection from a previous call; reconnect and retry once.
	e.logger.Warn().Err(err).Msg("SSH command failed, reconnecting")
	e.dropLocked()
	if err := e.connectLocked(); err != nil {
		return "", "", err
	}
	return e.runSessionLocked(ctx, command)
}

func (e *SSHExecutor) runSessionLocked(ctx context.Context, command string) (string, string, error) {
	session, err := e.client.NewSession()
	if err != nil {
		return "", "", fmt.Errorf("failed to open ssh session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case <-ctx.Done():
		session.Close()
		<-done
		return "", "", ctx.Err()
	case err = <-done:
	}
	if err != nil {
		return stdout.String(), stderr.String(), fmt.Errorf("remote command failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), stderr.String(), nil
}

// parseSubmitOutput interprets the remote sbatch result. Anything on stderr
// fails the submission even when sbatch exited zero; with --parsable the
// stdout is the bare job id (possibly "id;cluster").
func parseSubmitOutput(stdout, stderr string) (int, error) {
	if msg := strings.TrimSpace(stderr); msg != "" {
		return models.BadJobID, fmt.Errorf("sbatch wrote to stderr: %s", msg)
	}

	idText := strings.TrimSpace(stdout)
	if idx := strings.IndexByte(idText, ';'); idx >= 0 {
		idText = idText[:idx]
	}
	jobID, err := strconv.Atoi(idText)
	if err != nil {
		return models.BadJobID, fmt.Errorf("unexpected sbatch output %q: %w", strings.TrimSpace(stdout), err)
	}
	return jobID, nil
}

// Submit runs the rendered submission command.
func (e *SSHExecutor) Submit(ctx context.Context, command string) (int, error) {
	stdout, stderr, err := e.run(ctx, command)
	if err != nil {
		return models.BadJobID, fmt.Errorf("job submission failed: %w", err)
	}

	jobID, err := parseSubmitOutput(stdout, stderr)
	if err != nil {
		return models.BadJobID, fmt.Errorf("job submission failed: %w", err)
	}

	e.logger.Info().Int("job_id", jobID).Msg("Job submitted")
	return jobID, nil
}

// QueryJob returns the accounting snapshot for a job, or nil when the
// scheduler has no record of it.
func (e *SSHExecutor) QueryJob(ctx context.Context, jobID int) (*models.JobSnapshot, error) {
	if jobID == TestJobID {
		return testJobSnapshot(), nil
	}

	out, _, err := e.run(ctx, QueryJobCommand(jobID))
	if err != nil {
		return nil, fmt.Errorf("job query failed for %d: %w", jobID, err)
	}
	return ParseJobSnapshot(out), nil
}

// QueryJobsByState returns all accounting records currently in the state.
func (e *SSHExecutor) QueryJobsByState(ctx context.Context, state models.State) ([]models.JobSnapshot, error) {
	out, _, err := e.run(ctx, QueryStateCommand(state))
	if err != nil {
		return nil, fmt.Errorf("state query failed for %s: %w", state, err)
	}
	return ParseJobSnapshots(out), nil
}

// Cancel removes the job from the scheduler queue. A non-zero scancel exit
// status surfaces as an error.
func (e *SSHExecutor) Cancel(ctx context.Context, jobID int) error {
	if _, _, err := e.run(ctx, CancelCommand(jobID)); err != nil {
		return fmt.Errorf("cancel failed for %d: %w", jobID, err)
	}
	e.logger.Info().Int("job_id", jobID).Msg("Job cancelled")
	return nil
}

// Close tears down the shared connection.
func (e *SSHExecutor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dropLocked()
	return nil
}
