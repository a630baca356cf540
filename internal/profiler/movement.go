// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package profiler

import (
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/maps"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/models"
)

// deriveMovement turns road-context signals into a movement type. Precedence
// runs fastest to slowest: highway traffic passes by, junctions stop and go,
// pedestrian zones linger, everything else flows slowly.
func deriveMovement(mc maps.MovementContext) models.MovementResult {
	var signals []string
	if mc.RoadType != "" {
		signals = append(signals, "road_type:"+mc.RoadType)
	}
	if mc.NearJunction {
		signals = append(signals, "near_junction")
	}
	if mc.PedestrianFriendly {
		signals = append(signals, "pedestrian_friendly")
	}

	switch {
	case mc.RoadType == "highway":
		return models.MovementResult{
			Type:    MovementPassBy,
			Context: "High-Speed Corridor",
			Signals: signals,
		}
	case mc.NearJunction:
		return models.MovementResult{
			Type:    MovementStopAndGo,
			Context: "Junction / Signal Zone",
			Signals: signals,
		}
	case mc.PedestrianFriendly:
		return models.MovementResult{
			Type:    MovementPedestrian,
			Context: "Walkable Area",
			Signals: signals,
		}
	default:
		return models.MovementResult{
			Type:    MovementSlowFlow,
			Context: "Internal Connector Road",
			Signals: signals,
		}
	}
}
