// Package domain models the nitrogen-flow tables behind the Chesapeake Bay
// scenario dashboard and the pure rules that turn them into display artifacts.
//
// # Data Source
//
// Each scenario (a forecast year: 2017, 2030 or 2050) is a directory of five
// pre-computed CSV tables produced by the supply-chain nitrogen model described
// in https://www.doi.org/10.1088/1748-9326/ad5d0b. The tables are immutable for
// the lifetime of a process; everything in this package is recomputed from them.
//
// # Table Conventions
//
// FIPS codes:
//
//	Five-digit county codes, e.g. "51001" (Accomack County, VA). Spreadsheet
//	exports sometimes write them as numbers ("51001.0") or drop leading zeros;
//	both are normalised to the zero-padded string form by [NormalizeFIPS].
//
// Nitrogen quantities:
//
//	Mass units (kg N). Loss and trade-flow columns are non-negative; anything
//	else is rejected as a [RecordError].
//
// Loss stages:
//
//	The crop-processing table carries losses 1–2, the animal-stage table
//	losses 3–7. See [LossCategories] for the human-readable labels:
//
//	  1 N input not taken by crop          5 Food processing N loss
//	  2 Crop processing N loss             6 Food N waste
//	  3 Feed waste & manure loss           7 Human N waste
//	  4 Slaughtering/milking/laying N loss
//
// Trade flows:
//
//	Three directions (import, export, retained within the county) for three
//	supply-chain stages (crop processing, live animal, animal product). Older
//	exports label the retained direction "selfloop_*"; [LegacyColumnRenames]
//	maps those headers to the canonical "within_county_*" names.
//
// # Display Rules
//
// Colour scales use log1p(value) so that zero maps to zero. Tables show
// millions of mass units (kilotons) rounded to two decimals via [Amount]; the
// rounding never feeds back into sums. [Assemble] is a pure function, so the
// same tables always marshal to the same bytes.
package domain
