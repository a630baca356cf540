// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

/*
Package sync pulls screen inventory, computed area profiles, and slot
bookings from the console API into the local database, and expires stale
assistant holds on a fixed cadence.

Three console endpoints feed a sync cycle:

	GET {base}/screens/               full screen inventory
	GET {base}/screens/{id}/profile/  computed area profile for one screen
	GET {base}/slot-bookings/         all slot bookings

Key Components:

  - Manager: orchestrates periodic sync with a configurable interval,
    manual triggers from the API layer, and the hold-expiry sweep
  - ConsoleClient: HTTP client for the console API with rate limit
    handling (exponential backoff on HTTP 429)
  - ConsoleScreen / ConsoleBooking: wire types matching the console's
    serializer output, mapped into local models before storage

Failure Semantics:

A profile fetch failure never blocks the screen it belongs to; the
screen is upserted without fresh profile data and the previously stored
profile columns are left untouched. A bookings fetch failure is logged
and skipped so screen inventory still lands. Individual records with a
missing id or an unparsable date range are counted as errors and the
cycle continues.

The hold-expiry sweep runs even when console sync is disabled: assistant
holds reserve slots before payment, and unpaid holds older than the
configured expiry must release their slots regardless of where the
inventory came from.

Usage Example:

	client := sync.NewConsoleClient(&cfg.Sync)
	manager := sync.NewManager(db, client, cfg)

	manager.SetOnSyncCompleted(func(newRecords int, durationMs int64) {
	    log.Printf("Sync completed: %d records in %dms", newRecords, durationMs)
	})

	if err := manager.Start(ctx); err != nil {
	    log.Fatal(err)
	}

Thread Safety:

The Manager is fully thread-safe:
  - Mutex protects concurrent sync execution (syncMu)
  - RWMutex protects shared state (mu)
  - All ConsoleClient methods are goroutine-safe
*/
package sync
