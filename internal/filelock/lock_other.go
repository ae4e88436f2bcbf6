// RPO Engine - Sales Performance Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rpoengine

//go:build !unix && !windows

package filelock

import "os"

// Platforms without advisory locks rely on the in-process layer only.
func tryLock(*os.File) error { return nil }

func unlockFile(*os.File) error { return nil }
