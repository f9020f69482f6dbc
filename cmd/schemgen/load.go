package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/astei/schemgen/schematic"
	"github.com/astei/schemgen/structure"
	"github.com/astei/schemgen/volume"
)

// loadVolume reads a structure (.nbt) or a schematic (anything else).
func loadVolume(path string, limits volume.Limits) (*volume.Volume, error) {
	if isStructure(path) {
		f, err := structure.Load(path, volume.WithLimits(limits))
		if err != nil {
			return nil, err
		}
		return f.Volume, nil
	}
	f, err := schematic.Load(path, volume.WithLimits(limits))
	if err != nil {
		return nil, err
	}
	return f.Volume, nil
}

func isStructure(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".nbt")
}

// loadAll decodes every path on its own goroutine. The volumes come back in
// argument order so callers can merge them deterministically.
func loadAll(paths []string, limits volume.Limits) ([]*volume.Volume, error) {
	volumes := make([]*volume.Volume, len(paths))
	errs := make([]error, len(paths))

	var wg sync.WaitGroup
	wg.Add(len(paths))
	for i, path := range paths {
		go func(i int, path string) {
			defer wg.Done()
			volumes[i], errs[i] = loadVolume(path, limits)
		}(i, path)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("could not load %s: %w", paths[i], err)
		}
	}
	return volumes, nil
}

// mergeAll merges the volumes into a fresh volume, later ones overwriting
// earlier ones.
func mergeAll(volumes []*volume.Volume, limits volume.Limits) (*volume.Volume, error) {
	merged := volume.New(volume.WithLimits(limits))
	for _, v := range volumes {
		if err := merged.Merge(v, volume.Pos{}); err != nil {
			return nil, err
		}
	}
	return merged, nil
}
