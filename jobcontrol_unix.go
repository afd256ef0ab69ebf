//go:build unix

package ion

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// ForegroundRoster is the shell-level foreground-PID list spec §3/§6
// describes: appended by the launcher and cleared at pipeline start. The
// waiter works from each segment's own pid list, not from this roster. It also remembers the pgid currently owning the terminal
// so foreground_send can target it.
type ForegroundRoster struct {
	mu   sync.Mutex
	pgid int
	pids []int
}

func (r *ForegroundRoster) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pgid = 0
	r.pids = nil
}

func (r *ForegroundRoster) SetPgid(pgid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pgid = pgid
}

func (r *ForegroundRoster) Pgid() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pgid
}

func (r *ForegroundRoster) Append(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pids = append(r.pids, pid)
}

func (r *ForegroundRoster) Snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.pids))
	copy(out, r.pids)
	return out
}

// ForegroundSend is the spec's foreground_send(signal): deliver a signal to
// the whole foreground process group.
func (sh *Shell) ForegroundSend(sig unix.Signal) error {
	pgid := sh.Foreground.Pgid()
	if pgid <= 0 {
		return nil
	}
	return unix.Kill(-pgid, sig)
}

// waitPids blocks, one goroutine per pid, on a pid-scoped Wait4 until every
// pid in the segment has exited, invoking onExit as each one does so the
// caller can drop its remembered fds in exact exit order, and returns the
// status derived from lastPid's own termination. Shared by watchForeground
// and watchBackground: a segment's own pids are always reaped directly by
// the goroutine that spawned them, whether the pipeline is in the
// foreground or backgrounded, so there is never a second reaper anywhere
// in the process racing this Wait4 for the same pid.
func waitPids(lastPid int, pids []int, label func() string, onExit func(pid int)) int {
	type outcome struct {
		pid    int
		status unix.WaitStatus
	}
	ch := make(chan outcome, len(pids))
	for _, pid := range pids {
		go func(pid int) {
			var ws unix.WaitStatus
			for {
				_, err := unix.Wait4(pid, &ws, 0, nil)
				if err == unix.EINTR {
					continue
				}
				break
			}
			ch <- outcome{pid, ws}
		}(pid)
	}

	status := SUCCESS
	for range pids {
		o := <-ch
		onExit(o.pid)
		if o.pid != lastPid {
			continue
		}
		switch {
		case o.status.Exited():
			status = o.status.ExitStatus()
		case o.status.Signaled():
			status = Terminated(o.status.Signal())
			debugf("%s: terminated by signal %d", label(), o.status.Signal())
		}
	}
	return status
}

// watchForeground is the job-control/foreground-watch collaborator's
// watch_foreground (spec §4.7/§6).
func watchForeground(lastPid int, pids []int, label func() string, onExit func(pid int)) int {
	return waitPids(lastPid, pids, label, onExit)
}

// watchBackground is the background-pipeline analogue of watchForeground.
// It reaps its own pids directly via waitPids rather than through a
// wildcard SIGCHLD reap loop, so a backgrounded segment's exit status can
// never be stolen by, or race against, anything else in the process
// waiting on the same pid.
func watchBackground(lastPid int, pids []int, label func() string, onExit func(pid int)) int {
	return waitPids(lastPid, pids, label, onExit)
}

// BackgroundJob is a detached pipeline tracked for the "jobs"/"fg"/"bg"
// builtins (spec Non-goals keep this minimal: no UI polish, just enough to
// exercise the collaborator). It is registered before the pipeline's first
// process even spawns, so "jobs" can list it immediately; Pgid fills in as
// soon as the background driver's first child starts.
type BackgroundJob struct {
	mu     sync.Mutex
	ID     int
	Pgid   int
	Label  string
	Status int
	Done   chan struct{}
}

// setPgid records the job's process group the first time it becomes known.
func (job *BackgroundJob) setPgid(pgid int) {
	job.mu.Lock()
	defer job.mu.Unlock()
	if job.Pgid == 0 {
		job.Pgid = pgid
	}
}

func (job *BackgroundJob) pgid() int {
	job.mu.Lock()
	defer job.mu.Unlock()
	return job.Pgid
}

// finish records the whole background pipeline's final status once its
// driver goroutine returns, unblocking "fg"/"wait".
func (job *BackgroundJob) finish(status int) {
	job.mu.Lock()
	job.Status = status
	job.mu.Unlock()
	close(job.Done)
}

// JobManager tracks backgrounded pipelines, generalizing the teacher's
// job.go from single-process jobs to pgid-based segments. Each
// BackgroundJob reaps its own children directly (see watchBackground), so
// JobManager itself holds no reap loop of its own.
type JobManager struct {
	mu     sync.Mutex
	jobs   map[int]*BackgroundJob
	nextID int
}

func NewJobManager() *JobManager {
	return &JobManager{jobs: make(map[int]*BackgroundJob), nextID: 1}
}

// Register opens a new background job slot before anything has been
// spawned yet, so "jobs" can report it the moment fork_pipe starts.
func (jm *JobManager) Register(label string) *BackgroundJob {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	job := &BackgroundJob{ID: jm.nextID, Label: label, Done: make(chan struct{})}
	jm.jobs[job.ID] = job
	jm.nextID++
	return job
}

func (jm *JobManager) List() []*BackgroundJob {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	out := make([]*BackgroundJob, 0, len(jm.jobs))
	for _, j := range jm.jobs {
		out = append(out, j)
	}
	return out
}

func (jm *JobManager) Get(id int) (*BackgroundJob, bool) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	j, ok := jm.jobs[id]
	return j, ok
}

func (jm *JobManager) remove(id int) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	delete(jm.jobs, id)
}

// Wait blocks until the job's whole pipeline has finished, returning its
// final status. Used by the "fg" builtin.
func (jm *JobManager) Wait(id int) (int, error) {
	jm.mu.Lock()
	job, ok := jm.jobs[id]
	jm.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("fg: no such job: %d", id)
	}
	<-job.Done
	jm.remove(id)
	return job.Status, nil
}

// Signal delivers sig to a backgrounded job's process group. Used by "bg"
// (SIGCONT) and "kill".
func (jm *JobManager) Signal(id int, sig unix.Signal) error {
	job, ok := jm.Get(id)
	if !ok {
		return fmt.Errorf("no such job: %d", id)
	}
	return unix.Kill(-job.pgid(), sig)
}
