package billing

import (
	masterdata "meterdesk/internal/masterdata/domain"
	readings "meterdesk/internal/readings/domain"
)

// Amounts is the billing breakdown of an invoice.
type Amounts struct {
	WaterConsumption    float64
	WaterRatePerUnit    float64
	WaterAmount         float64
	ElectricConsumption float64
	ElectricRatePerUnit float64
	ElectricAmount      float64
	Subtotal            float64
	Tax                 float64
	Total               float64
}

// ComputeAmounts derives the billing breakdown from a reading group and team
// settings. Fixed-mode water bills the flat fee with zero consumption and
// rate; metered water bills measured consumption at the per-unit rate. Tax is
// a percentage of the subtotal.
func ComputeAmounts(group *readings.ReadingGroup, settings *masterdata.TeamSettings) Amounts {
	var amounts Amounts

	if settings.WaterBillingMode == masterdata.WaterBillingFixed {
		amounts.WaterAmount = settings.WaterFixedFee
	} else if group.Water != nil {
		amounts.WaterConsumption = group.Water.Consumption
		amounts.WaterRatePerUnit = settings.WaterRatePerUnit
		amounts.WaterAmount = group.Water.Consumption * settings.WaterRatePerUnit
	}

	if group.Electric != nil {
		amounts.ElectricConsumption = group.Electric.Consumption
		amounts.ElectricRatePerUnit = settings.ElectricRatePerUnit
		amounts.ElectricAmount = group.Electric.Consumption * settings.ElectricRatePerUnit
	}

	amounts.Subtotal = amounts.WaterAmount + amounts.ElectricAmount
	amounts.Tax = amounts.Subtotal * settings.TaxRate / 100
	amounts.Total = amounts.Subtotal + amounts.Tax
	return amounts
}
