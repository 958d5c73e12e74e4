package baseline

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"k8s.io/klog/v2"

	"github.com/antoninbas/benchguard/destination"
)

// RegistryFileName is the name of the registry document inside a baselines directory.
const RegistryFileName = "Info.yml"

// Store keeps one registry document and one catalog document per destination
// under a single directory.
type Store struct {
	Dir string
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

func (s *Store) RegistryPath() string {
	return filepath.Join(s.Dir, RegistryFileName)
}

func (s *Store) CatalogPath(destinationID string) string {
	return filepath.Join(s.Dir, destinationID+".yml")
}

func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// LoadRegistry reads the registry document. A missing document is an empty registry.
func (s *Store) LoadRegistry() (destination.Registry, error) {
	data, err := readOptional(s.RegistryPath())
	if err != nil {
		return nil, fmt.Errorf("unable to read registry: %w", err)
	}
	r, err := DecodeRegistry(data)
	if err != nil {
		return nil, withPath(err, s.RegistryPath())
	}
	return r, nil
}

// LoadCatalog reads the catalog document of a destination. A missing document
// is an empty catalog.
func (s *Store) LoadCatalog(destinationID string) (Catalog, error) {
	path := s.CatalogPath(destinationID)
	data, err := readOptional(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read catalog: %w", err)
	}
	c, err := DecodeCatalog(data)
	if err != nil {
		return nil, withPath(err, path)
	}
	return c, nil
}

func withPath(err error, path string) error {
	var malformed *MalformedDocumentError
	if errors.As(err, &malformed) {
		malformed.Path = path
	}
	return err
}

// Document is the rendered content of one registry or catalog file.
type Document struct {
	Path    string
	Content []byte
	// Added lists the entries that did not exist before: destination
	// identifiers for the registry, "group/name" for a catalog.
	Added []string
}

// Rendered lists the documents touched by Apply.
type Rendered struct {
	Written bool
	// Registry is nil when no new destination was registered.
	Registry *Document
	Catalogs []Document
}

// Print writes the documents that gained new entries, with instructions for
// applying them by hand. Documents that only update existing entries are
// listed by path.
func (r *Rendered) Print(w io.Writer) {
	if r.Registry != nil {
		fmt.Fprintf(w, "Destination not found. A new destination %s will be created.\n\n", strings.Join(r.Registry.Added, ", "))
		fmt.Fprintf(w, "If running on CI, you can copy the following YAML and replace the contents of %s with it:\n\n", r.Registry.Path)
		fmt.Fprintf(w, "%s\n", r.Registry.Content)
	}
	for _, doc := range r.Catalogs {
		if len(doc.Added) == 0 {
			fmt.Fprintf(w, "Updated baselines for %s are ready; run with overwrite enabled to store them.\n\n", doc.Path)
			continue
		}
		fmt.Fprintf(w, "Baseline not found for %s. A new baseline will be created.\n\n", strings.Join(doc.Added, ", "))
		fmt.Fprintf(w, "If running on CI, you can copy the following YAML and replace the contents of %s with it:\n\n", doc.Path)
		fmt.Fprintf(w, "%s\n", doc.Content)
	}
}

// Apply folds updates, in order, over the documents currently stored and
// renders every document that changed. The documents are written only when
// overwrite is set; otherwise the store is left untouched.
//
// Destination identifiers are resolved again against the folded registry so
// that several updates for an unregistered machine share one new destination.
func (s *Store) Apply(overwrite bool, updates ...PendingUpdate) (*Rendered, error) {
	if len(updates) == 0 {
		return &Rendered{}, nil
	}
	if overwrite {
		if err := os.MkdirAll(s.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("unable to create baselines directory: %w", err)
		}
		unlock, err := lockPath(s.RegistryPath())
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	registry, err := s.LoadRegistry()
	if err != nil {
		return nil, err
	}
	catalogs := map[string]Catalog{}
	added := map[string][]string{}
	var newDestinations []string
	rendered := &Rendered{Written: overwrite}

	for _, u := range updates {
		id, ok := registry.Find(u.Fingerprint)
		if !ok {
			id = u.DestinationID
		}
		catalog, ok := catalogs[id]
		if !ok && id != "" {
			if catalog, err = s.LoadCatalog(id); err != nil {
				return nil, err
			}
		}
		staged, err := Stage(registry, catalog, id, u.Fingerprint, u.Group, u.Name, u.Baseline)
		if err != nil {
			return nil, err
		}
		if _, registered := registry[staged.DestinationID]; !registered {
			newDestinations = append(newDestinations, staged.DestinationID)
		}
		if staged.NewBaseline {
			added[staged.DestinationID] = append(added[staged.DestinationID], u.Group+"/"+u.Name)
		}
		registry = staged.Registry
		catalogs[staged.DestinationID] = staged.Catalog
	}

	if len(newDestinations) > 0 {
		content, err := EncodeRegistry(registry)
		if err != nil {
			return nil, err
		}
		rendered.Registry = &Document{Path: s.RegistryPath(), Content: content, Added: newDestinations}
	}
	ids := make([]string, 0, len(catalogs))
	for id := range catalogs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		content, err := EncodeCatalog(catalogs[id])
		if err != nil {
			return nil, err
		}
		rendered.Catalogs = append(rendered.Catalogs, Document{Path: s.CatalogPath(id), Content: content, Added: added[id]})
	}

	if !overwrite {
		return rendered, nil
	}
	if rendered.Registry != nil {
		if err := writeAtomic(rendered.Registry.Path, rendered.Registry.Content); err != nil {
			return nil, err
		}
		klog.InfoS("Registry written", "path", rendered.Registry.Path, "newDestinations", rendered.Registry.Added)
	}
	for _, doc := range rendered.Catalogs {
		if err := writeAtomic(doc.Path, doc.Content); err != nil {
			return nil, err
		}
		klog.InfoS("Catalog written", "path", doc.Path)
	}
	return rendered, nil
}

// writeAtomic replaces path with content through a temporary file in the same directory.
func writeAtomic(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("unable to create temporary file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("unable to write %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("unable to sync %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("unable to close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("unable to replace %s: %w", path, err)
	}
	return nil
}
