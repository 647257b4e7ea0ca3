package cmd

import (
	"errors"

	"github.com/maxkimambo/shellchain/internal/chainfile"
	chainerrors "github.com/maxkimambo/shellchain/internal/errors"
	"github.com/maxkimambo/shellchain/internal/utils"
)

// loadChainFile reads path and applies --var overrides on top of its vars.
func loadChainFile(path string, overrides []string) (*chainfile.File, error) {
	if path == "" {
		return nil, errors.New("required flag --file not set")
	}

	f, err := chainfile.Load(path)
	if err != nil {
		return nil, err
	}

	vars, err := utils.MergeVars(f.Vars, overrides)
	if err != nil {
		return nil, chainerrors.NewChainFileError(chainerrors.CodeChainFileInvalid, path,
			"Invalid --var override", err).
			WithTroubleshooting("Pass overrides as --var key=value")
	}
	f.Vars = vars

	return f, nil
}

func chainName(f *chainfile.File, path string) string {
	if f.Name != "" {
		return f.Name
	}
	return path
}
