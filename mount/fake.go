package mount

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
)

// Fake is an in-memory Mounter.
type Fake struct {
	mu      sync.Mutex
	mounted map[string]string
	// Log records "mount <src> <target> <opts>" and "umount <target>".
	Log []string
	// FailMount, keyed by target, makes Mount fail.
	FailMount map[string]error
	// FailUnmount, keyed by target, makes Unmount fail.
	FailUnmount map[string]error
	// OnMount runs after a successful mount, e.g. to populate target.
	OnMount func(source, target string)
	// OnUnmount runs before every unmount attempt.
	OnUnmount func(target string)
}

// NewFake returns a Fake with nothing mounted.
func NewFake() *Fake {
	return &Fake{mounted: map[string]string{}}
}

// Mount implements Mounter.
func (f *Fake) Mount(_ context.Context, source, target string, options ...string) error {
	f.mu.Lock()
	target = filepath.Clean(target)
	f.Log = append(f.Log, fmt.Sprintf("mount %s %s %v", source, target, options))
	if err := f.FailMount[target]; err != nil {
		f.mu.Unlock()
		return err
	}
	if _, ok := f.mounted[target]; ok {
		f.mu.Unlock()
		return fmt.Errorf("%s already mounted", target)
	}
	f.mounted[target] = source
	hook := f.OnMount
	f.mu.Unlock()
	if hook != nil {
		hook(source, target)
	}
	return nil
}

// Unmount implements Mounter.
func (f *Fake) Unmount(_ context.Context, target string) error {
	target = filepath.Clean(target)
	f.mu.Lock()
	hook := f.OnUnmount
	f.mu.Unlock()
	if hook != nil {
		hook(target)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.Log = append(f.Log, "umount "+target)
	if err := f.FailUnmount[target]; err != nil {
		return err
	}
	if _, ok := f.mounted[target]; !ok {
		return fmt.Errorf("%s not mounted", target)
	}
	delete(f.mounted, target)
	return nil
}

// IsMounted implements Mounter.
func (f *Fake) IsMounted(target string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.mounted[filepath.Clean(target)]
	return ok, nil
}

// Mounted returns the current target -> source table.
func (f *Fake) Mounted() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.mounted))
	for k, v := range f.mounted {
		out[k] = v
	}
	return out
}
