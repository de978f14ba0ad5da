// Package registry holds the per-package conversation registrations that
// resolve raw event identifiers to known conversations. It is the lookup
// side consulted by the classifier; most installed packages never register
// and simply resolve to nothing.
package registry

import (
	"sort"
	"sync"

	"github.com/thebtf/rapport/internal/usage"
	"github.com/thebtf/rapport/pkg/models"
)

// Registry maps package names to their aggregate roots. Safe for concurrent
// use; registration may race with classification, in which case each lookup
// observes a consistent snapshot.
type Registry struct {
	mu       sync.RWMutex
	packages map[string]*Package
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{packages: make(map[string]*Package)}
}

// ResolvePackage returns the aggregate root for a package, or nil when the
// package has never registered a conversation.
func (r *Registry) ResolvePackage(packageName string) usage.Aggregate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pkg, ok := r.packages[packageName]
	if !ok {
		return nil
	}
	return pkg
}

// AddConversation registers a conversation under a package, creating the
// package's aggregate on first registration. An existing conversation with
// the same shortcut id is replaced, and its locus/channel indexes updated.
func (r *Registry) AddConversation(packageName string, info models.ConversationInfo) {
	r.mu.Lock()
	pkg, ok := r.packages[packageName]
	if !ok {
		pkg = newPackage(packageName)
		r.packages[packageName] = pkg
	}
	r.mu.Unlock()

	pkg.add(info)
}

// RemoveConversation deletes a conversation by shortcut id. Removing the
// last conversation keeps the package registered; an empty aggregate still
// resolves, it just matches nothing.
func (r *Registry) RemoveConversation(packageName, shortcutID string) {
	r.mu.RLock()
	pkg, ok := r.packages[packageName]
	r.mu.RUnlock()
	if ok {
		pkg.remove(shortcutID)
	}
}

// PackageNames returns the registered package names, sorted.
func (r *Registry) PackageNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.packages))
	for name := range r.packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Package is the aggregate root for one package: its registered
// conversations indexed by each of the three identifier spaces.
type Package struct {
	name string

	mu         sync.RWMutex
	byShortcut map[string]models.ConversationInfo
	byLocus    map[string]string // locus id -> shortcut id
	byChannel  map[string]string // notification channel id -> shortcut id
}

func newPackage(name string) *Package {
	return &Package{
		name:       name,
		byShortcut: make(map[string]models.ConversationInfo),
		byLocus:    make(map[string]string),
		byChannel:  make(map[string]string),
	}
}

// PackageName returns the owning package's name.
func (p *Package) PackageName() string { return p.name }

// ConversationByShortcut looks up a conversation by shortcut id.
func (p *Package) ConversationByShortcut(shortcutID string) *models.ConversationInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if info, ok := p.byShortcut[shortcutID]; ok {
		return &info
	}
	return nil
}

// ConversationByLocus looks up a conversation by locus id.
func (p *Package) ConversationByLocus(locusID string) *models.ConversationInfo {
	if locusID == "" {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if shortcutID, ok := p.byLocus[locusID]; ok {
		if info, ok := p.byShortcut[shortcutID]; ok {
			return &info
		}
	}
	return nil
}

// ConversationByNotificationChannel looks up a conversation by notification
// channel id.
func (p *Package) ConversationByNotificationChannel(channelID string) *models.ConversationInfo {
	if channelID == "" {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if shortcutID, ok := p.byChannel[channelID]; ok {
		if info, ok := p.byShortcut[shortcutID]; ok {
			return &info
		}
	}
	return nil
}

// Conversations returns the registered conversations, sorted by shortcut id.
func (p *Package) Conversations() []models.ConversationInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.ConversationInfo, 0, len(p.byShortcut))
	for _, info := range p.byShortcut {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShortcutID < out[j].ShortcutID })
	return out
}

func (p *Package) add(info models.ConversationInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if old, ok := p.byShortcut[info.ShortcutID]; ok {
		p.dropIndexes(old)
	}
	p.byShortcut[info.ShortcutID] = info
	if info.LocusID != "" {
		p.byLocus[info.LocusID] = info.ShortcutID
	}
	if info.NotificationChannelID != "" {
		p.byChannel[info.NotificationChannelID] = info.ShortcutID
	}
}

func (p *Package) remove(shortcutID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	info, ok := p.byShortcut[shortcutID]
	if !ok {
		return
	}
	delete(p.byShortcut, shortcutID)
	p.dropIndexes(info)
}

// dropIndexes removes the secondary index entries for a conversation.
// Callers hold p.mu.
func (p *Package) dropIndexes(info models.ConversationInfo) {
	if info.LocusID != "" && p.byLocus[info.LocusID] == info.ShortcutID {
		delete(p.byLocus, info.LocusID)
	}
	if info.NotificationChannelID != "" && p.byChannel[info.NotificationChannelID] == info.ShortcutID {
		delete(p.byChannel, info.NotificationChannelID)
	}
}
