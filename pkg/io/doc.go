// Package io reads pre-parsed SurfaceFlinger traces from JSON and writes
// derived rectangles back out.
//
// # Trace Format
//
// A trace file is a single JSON object:
//
//	{
//	  "kind": "elapsed",
//	  "entries": [
//	    {
//	      "timestamp": "1000000",
//	      "layers": [
//	        {
//	          "id": 3,
//	          "stableId": "3 com.android.launcher3/.Launcher#0",
//	          "name": "com.android.launcher3/.Launcher#0",
//	          "parent": 1,
//	          "layerStack": 0,
//	          "visible": true,
//	          "zOrderPath": [0, 2],
//	          "occludedBy": [],
//	          "bounds": {"left": 0, "top": 0, "right": 1080, "bottom": 2400},
//	          "transform": {"dsdx": 1, "dtdx": 0, "dsdy": 0, "dtdy": 1, "tx": 0, "ty": 0}
//	        }
//	      ],
//	      "displays": [
//	        {"id": "0", "name": "Built-in Screen", "layerStack": 0,
//	         "size": {"width": 1080, "height": 2400}}
//	      ]
//	    }
//	  ]
//	}
//
// Timestamps may be JSON numbers or strings. Strings accept anything
// [timestamp.Parse] does, which keeps nanosecond values above 2^53 exact.
// A missing transform is the identity; a missing parent is a root.
//
// # Import
//
// [ReadTrace] decodes from any io.Reader and [ImportTrace] from a file path.
// Both sort entries by timestamp and reject snapshots with duplicate layer IDs.
//
// # Export
//
// [WriteRectanglesJSON] and [ExportRectanglesJSON] write the output of
// geometry.DeriveRectangles in the same shape the HTTP API serves.
//
// [timestamp.Parse]: github.com/matzehuels/winscope/pkg/timestamp.Parse
package io
