package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&SysOpr{},
	&SysOprLog{},
	// Catalog
	&Product{},
	&ProductUnit{},
	&LocationStock{},
	// Orders
	&Order{},
	&OrderLine{},
	// Ledger
	&StockMovement{},
}
