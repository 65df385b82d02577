// Package domain models Israeli address lookup for the kosher business
// directory.
//
// # Hebrew Text Conventions
//
// User input and provider output disagree on formatting far more often than
// on content. Before any comparison, text goes through [NormalizeHebrew]:
//
//	niqqud and cantillation   "תֵּל אָבִיב" → "תל אביב"   (Unicode Mn marks removed)
//	hyphen and maqaf          "קריית-גת", "קריית־גת" → "קריית גת"
//	whitespace                "  תל   אביב " → "תל אביב"
//	case                      "Kfar-Saba" → "kfar saba"
//
// City names additionally drop geresh and quote marks ([NormalizeCity]),
// so "ג'לג'וליה" and "ג׳לג׳וליה" compare equal. Street matching is tolerant
// of abbreviations and partial typing, see [StreetMatches].
//
// # Provider Noise
//
// The upstream provider sometimes returns candidates outside Israel for
// Hebrew queries. [InIsrael] is the only acceptance gate: a feature must
// carry country code "il" and lie inside [IsraelBounds]. The box is a
// rectangle, not the border polygon, and accepts a few near-border points.
//
// # Coordinates
//
// All coordinates are WGS-84 degrees rounded to 6 decimal places.
// [FromITM] and [ToITM] convert to and from the Israeli Transverse Mercator
// grid (EPSG:2039) used by government map services.
//
// # Business Records
//
// The directory backend publishes [Business] records when a business is
// created or its address changes. [EnrichWithCoordinates] fills in the
// position, recording in GeoSource whether it came from a street match,
// the city centre, or nothing at all.
package domain
