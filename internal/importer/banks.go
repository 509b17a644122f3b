package importer

// Generic reads any export with a header on its first non-empty row.
var Generic = Bank{
	name:    "generico",
	aliases: []string{"generic", "general"},
	parse: layout{
		header:  firstNonBlankRow,
		columns: defaultColumns,
	}.parse,
}

// Banorte exports carry an account title line above the header.
var Banorte = Bank{
	name:    "banorte",
	aliases: []string{"grupo financiero banorte"},
	parse: layout{
		header:  fixedRow(1),
		columns: defaultColumns.with(fieldReference, "Referencia Numérica"),
	}.parse,
}

// BBVA prints year-less "DD-mon" dates and wraps long concepts onto a second
// physical row that has no date or amounts.
var BBVA = Bank{
	name:    "bbva",
	aliases: []string{"bbva mexico", "bancomer", "bbva bancomer"},
	parse: layout{
		header: firstNonBlankRow,
		columns: defaultColumns.
			with(fieldDate, "Día", "Fecha Operación", "Fecha Oper").
			with(fieldConcept, "Concepto / Referencia", "Concepto/Referencia"),
		continuation: true,
	}.parse,
}

// Santander exports start with account metadata; the movement table header is
// the first row whose first cell is the row-number marker.
var Santander = Bank{
	name:    "santander",
	aliases: []string{"banco santander"},
	parse: layout{
		header:  sentinelRow("#", "No.", "Num"),
		columns: defaultColumns.with(fieldReference, "Recibo", "No. Recibo"),
	}.parse,
}
