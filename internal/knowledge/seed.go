package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/fraud-analyzer/internal/logger"
)

// FraudPattern is a reference description of a known fraud scheme.
type FraudPattern struct {
	ID              string
	Name            string
	Description     string
	Indicators      []string
	RiskLevel       string
	DetectionMethod string
}

// Text renders the pattern in the indexed document format.
func (p FraudPattern) Text() string {
	return fmt.Sprintf("Pattern: %s\nDescription: %s\nRisk Level: %s\nIndicators: %s\nDetection Method: %s",
		p.Name, p.Description, p.RiskLevel, strings.Join(p.Indicators, ", "), p.DetectionMethod)
}

// Document converts the pattern into a stored document.
func (p FraudPattern) Document() Document {
	return Document{
		ID:      p.ID,
		Content: p.Text(),
		Metadata: map[string]any{
			"pattern_name":     p.Name,
			"risk_level":       p.RiskLevel,
			"indicators_count": len(p.Indicators),
		},
	}
}

// ComplianceDoc is a regulatory reference text.
type ComplianceDoc struct {
	ID      string
	Title   string
	Content string
}

// Document converts the compliance text into a stored document.
func (c ComplianceDoc) Document(added time.Time) Document {
	return Document{
		ID:      c.ID,
		Content: c.Content,
		Metadata: map[string]any{
			"title":      c.Title,
			"type":       "compliance",
			"date_added": added.Format(time.RFC3339),
		},
	}
}

// Seed loads the built-in fraud patterns and compliance documents.
// Re-running it replaces the same ids.
func Seed(ctx context.Context, store Store) error {
	log := logger.FromContext(ctx)

	patterns := make([]Document, len(FraudPatterns))
	for i, p := range FraudPatterns {
		patterns[i] = p.Document()
	}
	if err := store.Upsert(ctx, CollectionFraudPatterns, patterns); err != nil {
		return fmt.Errorf("Seed: fraud patterns: %w", err)
	}
	log.Info().Int("count", len(patterns)).Str("collection", CollectionFraudPatterns).Msg("Seeded fraud patterns")

	now := time.Now().UTC()
	docs := make([]Document, len(ComplianceDocs))
	for i, c := range ComplianceDocs {
		docs[i] = c.Document(now)
	}
	if err := store.Upsert(ctx, CollectionComplianceDocs, docs); err != nil {
		return fmt.Errorf("Seed: compliance docs: %w", err)
	}
	log.Info().Int("count", len(docs)).Str("collection", CollectionComplianceDocs).Msg("Seeded compliance documents")

	return nil
}

// FraudPatterns is the built-in catalogue of fraud schemes.
var FraudPatterns = []FraudPattern{
	{
		ID:              "fp_001",
		Name:            "Unusual Transaction Amounts",
		Description:     "Transactions significantly higher or lower than historical average for the account",
		Indicators:      []string{"Amount deviation > 300%", "Sudden large transfers", "Micro-transactions before large transfer"},
		RiskLevel:       "HIGH",
		DetectionMethod: "Statistical anomaly detection",
	},
	{
		ID:              "fp_002",
		Name:            "Round Number Transactions",
		Description:     "Suspicious round number transactions that may indicate money laundering or fraud",
		Indicators:      []string{"Exactly round amounts (1000, 5000, 10000)", "Multiple round transactions in sequence"},
		RiskLevel:       "MEDIUM",
		DetectionMethod: "Pattern matching",
	},
	{
		ID:              "fp_003",
		Name:            "Rapid Account Draining",
		Description:     "Multiple transactions in short time period that drain account significantly",
		Indicators:      []string{"5+ transactions within 24 hours", "Total amount > 50% of account balance"},
		RiskLevel:       "CRITICAL",
		DetectionMethod: "Time-series analysis",
	},
	{
		ID:              "fp_004",
		Name:            "Unusual Geographic Patterns",
		Description:     "Transactions from unusual locations or rapid location changes",
		Indicators:      []string{"Transactions from multiple countries in hours", "Unusual country for account holder"},
		RiskLevel:       "HIGH",
		DetectionMethod: "Geolocation analysis",
	},
	{
		ID:              "fp_005",
		Name:            "Structuring (Smurfing)",
		Description:     "Multiple transactions just below reporting threshold to avoid detection",
		Indicators:      []string{"Transactions just under 10,000", "Multiple similar amounts", "Frequent deposits/withdrawals"},
		RiskLevel:       "HIGH",
		DetectionMethod: "Threshold analysis",
	},
	{
		ID:              "fp_006",
		Name:            "Account Takeover",
		Description:     "Unauthorized access and control of legitimate account",
		Indicators:      []string{"New device login", "Password change before transactions", "Unusual transaction patterns"},
		RiskLevel:       "CRITICAL",
		DetectionMethod: "Behavioral analysis",
	},
	{
		ID:              "fp_007",
		Name:            "Duplicate Transactions",
		Description:     "Same transaction processed multiple times (billing fraud)",
		Indicators:      []string{"Identical amount and recipient within short time", "Multiple charges same merchant"},
		RiskLevel:       "MEDIUM",
		DetectionMethod: "Duplicate detection",
	},
	{
		ID:              "fp_008",
		Name:            "Layering",
		Description:     "Complex series of transactions to obscure money origin (money laundering)",
		Indicators:      []string{"Multiple transfers between accounts", "Cross-border transfers", "Frequent account changes"},
		RiskLevel:       "HIGH",
		DetectionMethod: "Transaction graph analysis",
	},
	{
		ID:              "fp_009",
		Name:            "Velocity Fraud",
		Description:     "Multiple transactions from same card/account in impossible timeframe",
		Indicators:      []string{"Transactions from different locations simultaneously", "Multiple transactions within minutes"},
		RiskLevel:       "CRITICAL",
		DetectionMethod: "Velocity checking",
	},
	{
		ID:              "fp_010",
		Name:            "Unusual Merchant Categories",
		Description:     "Transactions with merchants inconsistent with account holder profile",
		Indicators:      []string{"Gambling/adult content for conservative account", "Luxury purchases for low-income account"},
		RiskLevel:       "MEDIUM",
		DetectionMethod: "Profile analysis",
	},
	{
		ID:              "fp_011",
		Name:            "Benign Account Behavior Change",
		Description:     "Sudden change in account behavior patterns",
		Indicators:      []string{"New merchant categories", "Different transaction times", "Changed spending patterns"},
		RiskLevel:       "MEDIUM",
		DetectionMethod: "Behavioral baseline comparison",
	},
	{
		ID:              "fp_012",
		Name:            "Prepaid Card Fraud",
		Description:     "Fraudulent use of prepaid cards or gift cards",
		Indicators:      []string{"Rapid card activation and use", "Multiple small transactions", "Card never used before"},
		RiskLevel:       "MEDIUM",
		DetectionMethod: "Prepaid card analysis",
	},
	{
		ID:              "fp_013",
		Name:            "Phishing and Social Engineering",
		Description:     "Account compromise through deceptive practices",
		Indicators:      []string{"Credential change from unusual IP", "Unauthorized transfers after phishing", "Account recovery attempts"},
		RiskLevel:       "CRITICAL",
		DetectionMethod: "Security event correlation",
	},
	{
		ID:              "fp_014",
		Name:            "Insider Fraud",
		Description:     "Fraud committed by employees or insiders with system access",
		Indicators:      []string{"Transactions outside business hours", "Unauthorized access", "Data exfiltration"},
		RiskLevel:       "CRITICAL",
		DetectionMethod: "Access log analysis",
	},
	{
		ID:              "fp_015",
		Name:            "Synthetic Identity Fraud",
		Description:     "Fraudulent identity created using mix of real and fake information",
		Indicators:      []string{"New account with immediate high activity", "Inconsistent personal information", "Multiple credit applications"},
		RiskLevel:       "HIGH",
		DetectionMethod: "Identity verification",
	},
}

// ComplianceDocs is the built-in set of regulatory references.
var ComplianceDocs = []ComplianceDoc{
	{
		ID:    "comp_001",
		Title: "Anti-Money Laundering (AML) Regulations",
		Content: `AML regulations require financial institutions to:
1. Know Your Customer (KYC) - Verify customer identity
2. Monitor transactions for suspicious activity
3. Report suspicious transactions to authorities
4. Maintain transaction records for 5+ years
5. Implement customer risk assessment

Red flags for AML:
- Structuring (multiple transactions below reporting threshold)
- Rapid movement of funds
- Transactions inconsistent with customer profile
- Use of shell companies
- Trade-based money laundering`,
	},
	{
		ID:    "comp_002",
		Title: "Know Your Customer (KYC) Requirements",
		Content: `KYC procedures must include:
1. Customer identification and verification
2. Beneficial ownership identification
3. Purpose and nature of business relationship
4. Risk assessment of customer
5. Ongoing monitoring and updating

Enhanced Due Diligence (EDD) required for:
- High-risk jurisdictions
- Politically exposed persons (PEPs)
- High-value customers
- Unusual transaction patterns`,
	},
	{
		ID:    "comp_003",
		Title: "Suspicious Activity Report (SAR) Triggers",
		Content: `SARs must be filed when:
1. Transaction amount exceeds $5,000 (or equivalent)
2. Suspicious activity is detected
3. Pattern suggests money laundering
4. Fraud indicators are present
5. Customer behavior is unusual

SAR Filing Requirements:
- File within 30 days of detection
- Include transaction details
- Document suspicious indicators
- Maintain confidentiality
- Keep records for 5 years`,
	},
	{
		ID:    "comp_004",
		Title: "Transaction Monitoring Best Practices",
		Content: `Effective transaction monitoring includes:
1. Real-time anomaly detection
2. Historical baseline comparison
3. Peer group analysis
4. Geographic risk assessment
5. Merchant category analysis
6. Velocity checking
7. Network analysis

Monitoring should cover:
- Transaction amount and frequency
- Customer location and behavior
- Merchant information
- Device and IP changes
- Cross-border transactions`,
	},
	{
		ID:    "comp_005",
		Title: "Data Security and Privacy",
		Content: `Financial data security requirements:
1. Encryption in transit and at rest
2. Access controls and authentication
3. Audit logging and monitoring
4. Regular security assessments
5. Incident response procedures
6. Data retention policies
7. GDPR and privacy compliance

Security measures:
- Multi-factor authentication
- Role-based access control
- Data masking for sensitive information
- Regular penetration testing
- Employee training and awareness`,
	},
}
