// This file is part of c2t.
//
// c2t is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// c2t is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with c2t.  If not, see <https://www.gnu.org/licenses/>.

package supervisor

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/qdt/c2t/curated"
	"github.com/qdt/c2t/logger"
	"golang.org/x/sys/unix"
)

// MaxCapture is the number of bytes of output retained for each process.
const MaxCapture = 16 * 1024

// how long to wait for output pipes to drain once the process has exited
const waitDelay = time.Second

// Process is a child process running in its own process group. Stopping a
// Process terminates the whole group, including any processes it spawned.
type Process struct {
	Name string

	cmd    *exec.Cmd
	output *cappedWriter
	stderr *cappedWriter

	done chan struct{}
	err  error

	stop sync.Once
}

// Start the command described by argv in the working directory dir. Standard
// output and standard error are captured together. Standard error is also
// captured on its own.
func Start(name string, argv []string, dir string) (*Process, error) {
	if len(argv) == 0 {
		return nil, curated.Errorf(LaunchError, "empty command")
	}

	p := &Process{
		Name:   name,
		output: newCappedWriter(MaxCapture),
		stderr: newCappedWriter(MaxCapture),
		done:   make(chan struct{}),
	}

	p.cmd = exec.Command(argv[0], argv[1:]...)
	p.cmd.Dir = dir
	p.cmd.Stdout = p.output
	p.cmd.Stderr = io.MultiWriter(p.output, p.stderr)
	p.cmd.WaitDelay = waitDelay
	p.cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := p.cmd.Start(); err != nil {
		return nil, curated.Errorf(LaunchError, err)
	}

	logger.Logf(logger.Allow, "supervisor", "%s: started pid %d: %s", name, p.cmd.Process.Pid, strings.Join(argv, " "))

	go func() {
		p.err = p.cmd.Wait()
		close(p.done)
	}()

	return p, nil
}

// Pid returns the process ID, which is also the process group ID.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Done is closed when the process has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Exited returns true if the process has exited.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Err returns the result of the process. Only meaningful after Done() has been
// closed.
func (p *Process) Err() error {
	return p.err
}

// Output returns the captured output of the process.
func (p *Process) Output() string {
	return p.output.String()
}

// Stderr returns the captured standard error of the process.
func (p *Process) Stderr() string {
	return p.stderr.String()
}

// Wait for the process to exit. If the context is cancelled first the
// process group is killed and the context's error is returned.
func (p *Process) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		p.Stop()
		return ctx.Err()
	}
}

// Stop kills the process group and waits for the process to be reaped. It is
// safe to call Stop more than once and on a process that has already exited.
func (p *Process) Stop() {
	p.stop.Do(func() {
		if !p.Exited() {
			logger.Logf(logger.Allow, "supervisor", "%s: killing process group %d", p.Name, p.Pid())
		}

		// the group may outlive the leader so it is always signalled
		err := unix.Kill(-p.Pid(), unix.SIGKILL)
		if err != nil && !errors.Is(err, unix.ESRCH) {
			logger.Logf(logger.Allow, "supervisor", "%s: %v", p.Name, err)
		}

		<-p.done
	})
}

// exitError describes how the process ended, together with any output.
func (p *Process) exitError() error {
	out := strings.TrimSpace(p.Output())
	if p.err == nil {
		if out == "" {
			return errors.New("exited")
		}
		return errors.New("exited: " + out)
	}
	if out == "" {
		return p.err
	}
	return errors.New(p.err.Error() + ": " + out)
}
