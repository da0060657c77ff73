package alsa

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// linkGroup is one equivalence class of linked handles. Trigger verbs on
// any member run on every member while the group lock is held.
type linkGroup struct {
	mu      sync.Mutex
	members []*PCM
}

func (g *linkGroup) remove(p *PCM) {
	for i, m := range g.members {
		if m == p {
			g.members = append(g.members[:i], g.members[i+1:]...)
			return
		}
	}
}

// kernelLinker is implemented by back-ends whose link groups live in the
// kernel, joined by descriptor.
type kernelLinker interface {
	link(fd int) error
	unlink() error
}

// groupEach runs fn on the handle and every linked sibling, the caller's
// handle first. The first failure stops the sweep.
func (p *PCM) groupEach(fn func(*PCM) error) error {
	g := p.group
	if g == nil {
		return fn(p)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := fn(p); err != nil {
		return err
	}
	for _, m := range g.members {
		if m == p {
			continue
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

// Link joins two handles into one trigger group: start, stop and prepare
// on either apply to both. Kernel-backed handles are joined in the
// kernel; user-space handles join an engine-level group. Mixing the two
// kinds fails with ENOSYS.
func (p *PCM) Link(other *PCM) error {
	if p == other {
		return errInvalid("cannot link a handle to itself")
	}
	d1 := p.fastOps.linkDescriptor(p.fastOpArg)
	d2 := other.fastOps.linkDescriptor(other.fastOpArg)

	if d1 >= 0 && d2 >= 0 {
		kl, ok := p.fastOpArg.(kernelLinker)
		if !ok {
			return fmt.Errorf("link: %w", unix.ENOSYS)
		}
		return kl.link(d2)
	}
	if d1 >= 0 || d2 >= 0 {
		return fmt.Errorf("link across back-end kinds: %w", unix.ENOSYS)
	}

	l1, ok1 := p.fastOpArg.(groupLinkable)
	l2, ok2 := other.fastOpArg.(groupLinkable)
	if !ok1 || !ok2 {
		return fmt.Errorf("link: %w", unix.ENOSYS)
	}
	if p.group != nil && p.group == other.group {
		return nil
	}
	if other.group != nil && p.group != nil {
		return errInvalid("both handles already linked")
	}

	g := p.group
	if g == nil {
		g = other.group
	}
	if g == nil {
		g = &linkGroup{members: []*PCM{p}}
		p.group = g
		l1.setLinkGroup(g)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if p.group == nil {
		p.group = g
		g.members = append(g.members, p)
		l1.setLinkGroup(g)
	}
	if other.group == nil {
		other.group = g
		g.members = append(g.members, other)
		l2.setLinkGroup(g)
	}
	p.log().WithField("peer", other.ID()).Debug("linked")
	return nil
}

// Unlink removes the handle from its trigger group. Handles that were
// never linked fail with EINVAL.
func (p *PCM) Unlink() error {
	if kl, ok := p.fastOpArg.(kernelLinker); ok && p.group == nil {
		if p.fastOps.linkDescriptor(p.fastOpArg) >= 0 {
			return kl.unlink()
		}
	}
	g := p.group
	if g == nil {
		return errInvalid("handle not linked")
	}
	g.mu.Lock()
	g.remove(p)
	g.mu.Unlock()
	p.group = nil
	if l, ok := p.fastOpArg.(groupLinkable); ok {
		l.setLinkGroup(nil)
	}
	p.log().Debug("unlinked")
	return nil
}
