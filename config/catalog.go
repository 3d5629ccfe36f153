package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"shogun/domain/entities"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type positionPolicyConfig struct {
	OperationDelayDays int    `yaml:"operation_delay_days"`
	CapMultiplier      string `yaml:"cap_multiplier"`
}

type feeConfig struct {
	PrivilegedWalletType string `yaml:"privileged_wallet_type"`
	PrivilegedRate       string `yaml:"privileged_rate"`
	StandardRate         string `yaml:"standard_rate"`
}

type rankTierConfig struct {
	Name                string `yaml:"name"`
	MaxLineThreshold    string `yaml:"max_line_threshold"`
	OtherLinesThreshold string `yaml:"other_lines_threshold"`
	DistributionRate    string `yaml:"distribution_rate"`
	BonusRate           string `yaml:"bonus_rate"`
}

type assetTemplateConfig struct {
	Name      string `yaml:"name"`
	Price     string `yaml:"price"`
	DailyRate string `yaml:"daily_rate"`
	IsSpecial bool   `yaml:"is_special"`
}

type catalogFile struct {
	PositionPolicy     positionPolicyConfig  `yaml:"position_policy"`
	MinQualifyingPrice string                `yaml:"min_qualifying_price"`
	Fees               feeConfig             `yaml:"fees"`
	RankTiers          []rankTierConfig      `yaml:"rank_tiers"`
	AssetTemplates     []assetTemplateConfig `yaml:"asset_templates"`
}

// Catalog is the reward policy: rank table, fees, position rules and the asset catalogue
type Catalog struct {
	PositionPolicy     entities.PositionPolicy
	MinQualifyingPrice decimal.Decimal // smallest position price that makes a user rank-eligible
	Fees               entities.FeeSchedule
	RankTable          entities.RankTable
	AssetTemplates     []entities.AssetTemplate
}

// LoadCatalog reads the catalogue from path, or the embedded default when path is empty
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(defaultCatalog)
	}

	catalogPath := path
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		catalogPath = filepath.Join(wd, path)
	}

	data, err := os.ReadFile(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", path, err)
	}

	catalog, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("unable to load %s: %w", path, err)
	}
	return catalog, nil
}

// DefaultCatalog returns the embedded catalogue
func DefaultCatalog() *Catalog {
	catalog, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return catalog
}

// ParseCatalog decodes and validates a YAML catalogue
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unable to parse catalog: %w", err)
	}

	catalog := &Catalog{}
	var err error

	catalog.PositionPolicy.OperationDelayDays = file.PositionPolicy.OperationDelayDays
	if catalog.PositionPolicy.OperationDelayDays < 0 {
		return nil, fmt.Errorf("operation_delay_days cannot be negative")
	}
	if catalog.PositionPolicy.CapMultiplier, err = parseAmount("cap_multiplier", file.PositionPolicy.CapMultiplier); err != nil {
		return nil, err
	}
	if !catalog.PositionPolicy.CapMultiplier.IsPositive() {
		return nil, fmt.Errorf("cap_multiplier must be positive")
	}

	if catalog.MinQualifyingPrice, err = parseAmount("min_qualifying_price", file.MinQualifyingPrice); err != nil {
		return nil, err
	}

	catalog.Fees.PrivilegedWalletType = entities.WalletType(file.Fees.PrivilegedWalletType)
	if !catalog.Fees.PrivilegedWalletType.IsValid() {
		return nil, fmt.Errorf("unknown privileged_wallet_type %q", file.Fees.PrivilegedWalletType)
	}
	if catalog.Fees.PrivilegedRate, err = parseRate("privileged_rate", file.Fees.PrivilegedRate); err != nil {
		return nil, err
	}
	if catalog.Fees.StandardRate, err = parseRate("standard_rate", file.Fees.StandardRate); err != nil {
		return nil, err
	}

	for i, tc := range file.RankTiers {
		tier := entities.RankTier{Name: entities.RankName(tc.Name)}
		if tier.MaxLineThreshold, err = parseAmount(fmt.Sprintf("rank_tiers[%d].max_line_threshold", i), tc.MaxLineThreshold); err != nil {
			return nil, err
		}
		if tier.OtherLinesThreshold, err = parseAmount(fmt.Sprintf("rank_tiers[%d].other_lines_threshold", i), tc.OtherLinesThreshold); err != nil {
			return nil, err
		}
		if tier.DistributionRate, err = parseAmount(fmt.Sprintf("rank_tiers[%d].distribution_rate", i), tc.DistributionRate); err != nil {
			return nil, err
		}
		if tc.BonusRate != "" {
			bonus, err := parseRate(fmt.Sprintf("rank_tiers[%d].bonus_rate", i), tc.BonusRate)
			if err != nil {
				return nil, err
			}
			tier.BonusRate = &bonus
		}
		catalog.RankTable = append(catalog.RankTable, tier)
	}
	if err := catalog.RankTable.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rank table: %w", err)
	}

	for i, tc := range file.AssetTemplates {
		template := entities.AssetTemplate{
			Name:      tc.Name,
			IsSpecial: tc.IsSpecial,
			IsActive:  true,
		}
		if template.Price, err = parseAmount(fmt.Sprintf("asset_templates[%d].price", i), tc.Price); err != nil {
			return nil, err
		}
		if template.DailyRate, err = parseAmount(fmt.Sprintf("asset_templates[%d].daily_rate", i), tc.DailyRate); err != nil {
			return nil, err
		}
		if err := template.Validate(); err != nil {
			return nil, fmt.Errorf("asset_templates[%d]: %w", i, err)
		}
		catalog.AssetTemplates = append(catalog.AssetTemplates, template)
	}

	return catalog, nil
}

func parseAmount(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, fmt.Errorf("%s is required", field)
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid amount %q: %w", field, value, err)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s cannot be negative", field)
	}
	return amount, nil
}

func parseRate(field, value string) (decimal.Decimal, error) {
	rate, err := parseAmount(field, value)
	if err != nil {
		return decimal.Zero, err
	}
	if rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("%s must be a fraction within [0, 1]", field)
	}
	return rate, nil
}
