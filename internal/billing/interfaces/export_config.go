package interfaces

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ExportConfig defines branding for exported invoices.
type ExportConfig struct {
	CompanyName    string `yaml:"company_name"`
	CompanyAddress string `yaml:"company_address"`
	CompanyTaxID   string `yaml:"company_tax_id"`
	FooterNote     string `yaml:"footer_note"`
}

// LoadExportConfig loads export branding from yaml or env.
func LoadExportConfig() (ExportConfig, error) {
	cfg := ExportConfig{
		CompanyName: getenvDefault("EXPORT_COMPANY_NAME", "MeterDesk"),
		FooterNote:  getenvDefault("EXPORT_FOOTER_NOTE", "Thank you for your payment."),
	}

	if path := os.Getenv("EXPORT_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.CompanyAddress == "" {
		cfg.CompanyAddress = os.Getenv("EXPORT_COMPANY_ADDRESS")
	}
	if cfg.CompanyTaxID == "" {
		cfg.CompanyTaxID = os.Getenv("EXPORT_COMPANY_TAX_ID")
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
