package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/wippyai/spirv-reflect/cache"
	"github.com/wippyai/spirv-reflect/errors"
	"github.com/wippyai/spirv-reflect/reflect"
	"github.com/wippyai/spirv-reflect/spirv"
)

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// report is the reflection result for one input file.
type report struct {
	File        string                  `json:"file"`
	Fingerprint string                  `json:"fingerprint"`
	Version     string                  `json:"version"`
	Sets        []reflect.DescriptorSet `json:"sets"`
	CodeSize    int                     `json:"code_size"`
}

// loadShader reads a SPIR-V file, decompressing zstd input.
func loadShader(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read "+path, err)
	}
	if !bytes.HasPrefix(data, zstdMagic) {
		return data, nil
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Load("create zstd decoder", err)
	}
	defer dec.Close()
	data, err = dec.DecodeAll(data, nil)
	if err != nil {
		return nil, errors.Load("decompress "+path, err)
	}
	return data, nil
}

func reflectFile(opts options, store *cache.Store, path string) (report, error) {
	code, err := loadShader(path)
	if err != nil {
		return report{}, err
	}
	opts.log.Debug("loaded shader", zap.String("file", path), zap.Int("bytes", len(code)))

	sm, err := reflect.Create(code)
	if err != nil {
		return report{}, fmt.Errorf("%s: %w", path, err)
	}

	var sets []reflect.DescriptorSet
	if store != nil {
		sets, err = store.Reflect(code)
	} else {
		sets, err = sm.DescriptorSets()
	}
	if err != nil {
		return report{}, fmt.Errorf("%s: %w", path, err)
	}

	return report{
		File:        path,
		Fingerprint: cache.Fingerprint(code),
		Version:     versionString(sm.Header()),
		Sets:        filterSets(sets, opts.set),
		CodeSize:    sm.CodeSize(),
	}, nil
}

func filterSets(sets []reflect.DescriptorSet, set int) []reflect.DescriptorSet {
	if set < 0 {
		return sets
	}
	out := []reflect.DescriptorSet{}
	for _, s := range sets {
		if s.Set == uint32(set) {
			out = append(out, s)
		}
	}
	return out
}

type rebinding struct {
	id, set, binding uint32
}

// parseRebinds parses a comma separated list of ID=SET.BINDING moves.
func parseRebinds(s string) ([]rebinding, error) {
	var out []rebinding
	for item := range strings.SplitSeq(s, ",") {
		item = strings.TrimSpace(item)
		id, slot, ok := strings.Cut(item, "=")
		if !ok {
			return nil, errors.InvalidInput(errors.PhaseLoad, fmt.Sprintf("rebind %q: expected ID=SET.BINDING", item))
		}
		set, binding, ok := strings.Cut(slot, ".")
		if !ok {
			return nil, errors.InvalidInput(errors.PhaseLoad, fmt.Sprintf("rebind %q: expected SET.BINDING after =", item))
		}

		var r rebinding
		for _, f := range []struct {
			dst  *uint32
			text string
		}{{&r.id, strings.TrimPrefix(id, "%")}, {&r.set, set}, {&r.binding, binding}} {
			n, err := strconv.ParseUint(f.text, 10, 32)
			if err != nil {
				return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, fmt.Sprintf("rebind %q", item))
			}
			*f.dst = uint32(n)
		}
		out = append(out, r)
	}
	return out, nil
}

// runRebind applies the -rebind moves to one file, writes the patched
// module to opts.output and reports the new layout.
func runRebind(w io.Writer, opts options, path string) error {
	moves, err := parseRebinds(opts.rebind)
	if err != nil {
		return err
	}
	code, err := loadShader(path)
	if err != nil {
		return err
	}
	sm, err := reflect.Create(code)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	for _, mv := range moves {
		sm, err = sm.Rebind(mv.id, mv.set, mv.binding)
		if err != nil {
			return fmt.Errorf("%s: rebind %%%d: %w", path, mv.id, err)
		}
		opts.log.Debug("rebound",
			zap.Uint32("id", mv.id),
			zap.Uint32("set", mv.set),
			zap.Uint32("binding", mv.binding))
	}

	patched := sm.Module().Bytes()
	if err := os.WriteFile(opts.output, patched, 0644); err != nil {
		return errors.Load("write "+opts.output, err)
	}

	sets, err := sm.DescriptorSets()
	if err != nil {
		return err
	}
	return writeReports(w, opts.format, []report{{
		File:        opts.output,
		Fingerprint: cache.Fingerprint(patched),
		Version:     versionString(sm.Header()),
		Sets:        filterSets(sets, opts.set),
		CodeSize:    sm.CodeSize(),
	}})
}

func versionString(h spirv.Header) string {
	return fmt.Sprintf("%d.%d", h.Major(), h.Minor())
}
