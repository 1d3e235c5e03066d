package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolCore/internal/engine"
	"poolCore/internal/model"
)

func runValidate(cmd *cobra.Command, _ []string) error {
	logLevel, _ := cmd.Flags().GetString("log-level")
	logger, err := newLogger(logLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	old, err := readState(cmd, "old")
	if err != nil {
		return err
	}
	proposed, err := readState(cmd, "proposed")
	if err != nil {
		return err
	}

	opPath, _ := cmd.Flags().GetString("op")
	if opPath == "" {
		return fmt.Errorf("operation file is required")
	}
	opData, err := os.ReadFile(opPath)
	if err != nil {
		return fmt.Errorf("read operation: %w", err)
	}
	op, err := model.DecodeOperation(opData)
	if err != nil {
		return fmt.Errorf("decode operation: %w", err)
	}

	currentTime, _ := cmd.Flags().GetUint64("current-time")
	poolOutputSize, _ := cmd.Flags().GetUint64("pool-output-size")
	if poolOutputSize == 0 {
		poolOutputSize, err = proposed.EncodedSize()
		if err != nil {
			return fmt.Errorf("measure proposed state: %w", err)
		}
	}

	err = engine.ValidateTransition(old, op, proposed, currentTime, engine.OutputSizes{PoolOutput: poolOutputSize})
	if err != nil {
		logger.Error("transition rejected",
			zap.Uint64("prior_version", old.Version),
			zap.String("op", op.Kind().String()),
			zap.Error(err))
		return err
	}

	logger.Info("transition accepted",
		zap.Uint64("prior_version", old.Version),
		zap.Uint64("new_version", proposed.Version),
		zap.String("op", op.Kind().String()))
	return nil
}

func readState(cmd *cobra.Command, flag string) (model.PoolState, error) {
	path, _ := cmd.Flags().GetString(flag)
	if path == "" {
		return model.PoolState{}, fmt.Errorf("%s state file is required", flag)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.PoolState{}, fmt.Errorf("read %s state: %w", flag, err)
	}
	var state model.PoolState
	if err := json.Unmarshal(data, &state); err != nil {
		return model.PoolState{}, fmt.Errorf("parse %s state: %w", flag, err)
	}
	return state, nil
}
