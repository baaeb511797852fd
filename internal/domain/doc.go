// Package domain models Landsat scene metadata and SSEBop temperature
// correction (Tcorr) records.
//
// # Data Source
//
// Scene arrival notifications originate from an upstream collector service
// that watches the Landsat archive for new acquisitions. For each new scene
// the collector publishes a flat JSON message to the Kafka source topic with
// the scene identifier, the source collection, and the reported cloud cover.
//
// # Scene Identifier Conventions
//
// Scene identifiers follow the short Landsat convention:
//
//	LXSS_PPPRRR_YYYYMMDD  →  e.g. "LC08_044033_20170716"
//	means Landsat 8 OLI/TIRS, WRS-2 path 044 row 033, acquired 2017-07-16.
//	Supported sensor prefixes: LT04, LT05, LE07, LC08, LC09.
//
// The WRS-2 tile string used as the climatology lookup key is derived from
// the path/row digits:
//
//	"p044r033"
//
// # Tcorr Provenance
//
// Each resolved coefficient carries a source index recording which fallback
// tier produced it:
//
//	0 - scene-specific Tcorr from the per-scene table
//	1 - monthly median Tcorr for the scene's WRS-2 tile
//	2 - global default Tcorr (0.978)
//	3 - user-defined fixed Tcorr
//
// The index is published with every record so downstream consumers can
// weight or filter coefficients by provenance.
//
// # ID Generation
//
// Record IDs are deterministic SHA-256 hashes of scene_id|wrs2_tile|date.
// This enables idempotent upserts downstream (ON CONFLICT DO NOTHING) and
// replay safety without distributed coordination. See [generateID].
package domain
