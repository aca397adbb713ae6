package main

import (
	"context"
	"fmt"

	"github.com/vango-dev/lessonvars/internal/config"
	"github.com/vango-dev/lessonvars/internal/lesson"
	"github.com/vango-dev/lessonvars/pkg/registry"
)

// loadDeclarations reads the registry named by source, a file path or an
// s3:// URI. An empty source means the built-in sine lesson.
func loadDeclarations(ctx context.Context, source, region string) (*registry.Registry, error) {
	if source == "" {
		return lesson.Registry(), nil
	}
	loc, err := registry.ParseLocation(source)
	if err != nil {
		return nil, err
	}
	return loadLocation(ctx, loc, region)
}

func loadLocation(ctx context.Context, loc registry.Location, region string) (*registry.Registry, error) {
	return registry.Load(ctx, loc, func() registry.ObjectGetter {
		return registry.NewS3Client(region)
	})
}

// loadConfigDeclarations reads the registry configured in cfg.
func loadConfigDeclarations(ctx context.Context, cfg *config.Config) (*registry.Registry, registry.Location, error) {
	loc, ok, err := cfg.VariablesLocation()
	if err != nil {
		return nil, registry.Location{}, fmt.Errorf("variables.source: %w", err)
	}
	if !ok {
		return lesson.Registry(), registry.Location{}, nil
	}
	reg, err := loadLocation(ctx, loc, cfg.Variables.Region)
	if err != nil {
		return nil, loc, err
	}
	return reg, loc, nil
}
