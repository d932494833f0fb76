package types

import (
	"fmt"
	"time"
)

// ResearchDepth selects which research sources the backend runs
type ResearchDepth string

const (
	DepthBasic         ResearchDepth = "basic"
	DepthStandard      ResearchDepth = "standard"
	DepthComprehensive ResearchDepth = "comprehensive"
)

// Valid reports whether the depth is one of the supported values
func (d ResearchDepth) Valid() bool {
	switch d {
	case DepthBasic, DepthStandard, DepthComprehensive:
		return true
	}
	return false
}

// ResearchDepths returns all supported research depths
func ResearchDepths() []ResearchDepth {
	return []ResearchDepth{DepthBasic, DepthStandard, DepthComprehensive}
}

// ResearchSource identifies a single research data source
type ResearchSource string

const (
	SourceWHOIS                ResearchSource = "whois"
	SourceWebSearch            ResearchSource = "web_search"
	SourceKnowledgeGraph       ResearchSource = "knowledge_graph"
	SourceAIAnalysis           ResearchSource = "ai_analysis"
	SourceLocationVerification ResearchSource = "location_verification"
	SourcePortfolioResearch    ResearchSource = "portfolio_research"
)

// ResearchStatus is the lifecycle state of a research job or task
type ResearchStatus string

const (
	StatusPending    ResearchStatus = "pending"
	StatusInProgress ResearchStatus = "in_progress"
	StatusCompleted  ResearchStatus = "completed"
	StatusFailed     ResearchStatus = "failed"
	StatusPartial    ResearchStatus = "partial"
)

// Terminal reports whether no further status changes will occur.
// Once a terminal status is observed, polling must stop.
func (s ResearchStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CompanyResearchRequest is the input for both synchronous and
// asynchronous company research
type CompanyResearchRequest struct {
	CompanyName            string        `json:"company_name,omitempty"`
	CompanyDomain          string        `json:"company_domain,omitempty"`
	ResearchDepth          ResearchDepth `json:"research_depth"`
	IncludeEmployeeReviews bool          `json:"include_employee_reviews"`
	IncludeFinancialData   bool          `json:"include_financial_data"`
	UserID                 string        `json:"user_id,omitempty"`
	IsPremium              bool          `json:"is_premium"`
}

// Validate checks that the request can be submitted
func (r CompanyResearchRequest) Validate() error {
	if r.CompanyName == "" && r.CompanyDomain == "" {
		return fmt.Errorf("either company_name or company_domain must be provided")
	}
	if r.ResearchDepth != "" && !r.ResearchDepth.Valid() {
		return fmt.Errorf("invalid research_depth: %s (must be basic, standard, or comprehensive)", r.ResearchDepth)
	}
	return nil
}

// DisplayName returns the best available identifier for log output
func (r CompanyResearchRequest) DisplayName() string {
	if r.CompanyName != "" {
		return r.CompanyName
	}
	return r.CompanyDomain
}

// JobHandle identifies a submitted asynchronous research job.
// It is immutable and held by the caller for the job's lifetime.
type JobHandle struct {
	RequestID   string `json:"request_id"`
	CompanyName string `json:"company_name"`
}

// AsyncResearchAck is the backend's acknowledgement of an async submission
type AsyncResearchAck struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// ResearchProgress is a snapshot of a running job's progress.
// Each poll produces a new snapshot; the last snapshot wins.
type ResearchProgress struct {
	RequestID               string           `json:"request_id"`
	CompanyName             string           `json:"company_name"`
	OverallProgress         float64          `json:"overall_progress"`
	CompletedTasks          []ResearchSource `json:"completed_tasks"`
	FailedTasks             []ResearchSource `json:"failed_tasks"`
	CurrentTask             *ResearchSource  `json:"current_task,omitempty"`
	EstimatedCompletionTime *float64         `json:"estimated_completion_time,omitempty"`
	Status                  ResearchStatus   `json:"status"`
}

// CancelAck is the backend's acknowledgement of a cancellation
type CancelAck struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// WHOISData holds domain registration data
type WHOISData struct {
	Domain                 string            `json:"domain"`
	Registrar              string            `json:"registrar,omitempty"`
	CreationDate           *time.Time        `json:"creation_date,omitempty"`
	ExpirationDate         *time.Time        `json:"expiration_date,omitempty"`
	UpdatedDate            *time.Time        `json:"updated_date,omitempty"`
	Status                 []string          `json:"status"`
	NameServers            []string          `json:"name_servers"`
	RegistrantOrganization string            `json:"registrant_organization,omitempty"`
	RegistrantCountry      string            `json:"registrant_country,omitempty"`
	AdminContact           map[string]string `json:"admin_contact,omitempty"`
	TechContact            map[string]string `json:"tech_contact,omitempty"`
	DNSSEC                 string            `json:"dnssec,omitempty"`
	LastChecked            time.Time         `json:"last_checked"`
}

// WebSearchResult is a single web search hit
type WebSearchResult struct {
	Title          string     `json:"title"`
	URL            string     `json:"url"`
	Snippet        string     `json:"snippet"`
	Source         string     `json:"source"`
	PublishedDate  *time.Time `json:"published_date,omitempty"`
	RelevanceScore *float64   `json:"relevance_score,omitempty"`
	ContentType    string     `json:"content_type"` // web_page, news, social_media, etc.
}

// KnowledgeGraphData holds entity data from a knowledge graph lookup
type KnowledgeGraphData struct {
	EntityID     string            `json:"entity_id,omitempty"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	EntityType   string            `json:"entity_type,omitempty"`
	Industry     string            `json:"industry,omitempty"`
	FoundedDate  string            `json:"founded_date,omitempty"`
	Headquarters string            `json:"headquarters,omitempty"`
	CEO          string            `json:"ceo,omitempty"`
	Employees    string            `json:"employees,omitempty"`
	Revenue      string            `json:"revenue,omitempty"`
	Website      string            `json:"website,omitempty"`
	SocialMedia  map[string]string `json:"social_media,omitempty"`
	Subsidiaries []string          `json:"subsidiaries,omitempty"`
	Competitors  []string          `json:"competitors,omitempty"`
}

// CompanyAuthenticity is the synthesized authenticity assessment
type CompanyAuthenticity struct {
	DomainAgeDays         *int     `json:"domain_age_days,omitempty"`
	DomainReputationScore *float64 `json:"domain_reputation_score,omitempty"`
	SocialPresenceScore   *float64 `json:"social_presence_score,omitempty"`
	NewsMentionsCount     *int     `json:"news_mentions_count,omitempty"`
	EmployeeReviewsCount  *int     `json:"employee_reviews_count,omitempty"`
	AuthenticityScore     *float64 `json:"authenticity_score,omitempty"`
	RiskFactors           []string `json:"risk_factors"`
	TrustIndicators       []string `json:"trust_indicators"`
	OverallAssessment     string   `json:"overall_assessment"` // trustworthy, suspicious, unknown
}

// EmployeeInsights summarizes employee review data
type EmployeeInsights struct {
	ReviewSentiment      string   `json:"review_sentiment,omitempty"`
	CommonPros           []string `json:"common_pros"`
	CommonCons           []string `json:"common_cons"`
	WorkLifeBalanceScore *float64 `json:"work_life_balance_score,omitempty"`
	CareerGrowthScore    *float64 `json:"career_growth_score,omitempty"`
	CompensationScore    *float64 `json:"compensation_score,omitempty"`
	ManagementScore      *float64 `json:"management_score,omitempty"`
	OverallRating        *float64 `json:"overall_rating,omitempty"`
	ReviewCount          *int     `json:"review_count,omitempty"`
}

// LocationData is location information from a single provider
type LocationData struct {
	Source           string     `json:"source"` // google_places or nominatim_osm
	Address          string     `json:"address,omitempty"`
	City             string     `json:"city,omitempty"`
	State            string     `json:"state,omitempty"`
	Country          string     `json:"country,omitempty"`
	PostalCode       string     `json:"postal_code,omitempty"`
	Latitude         *float64   `json:"latitude,omitempty"`
	Longitude        *float64   `json:"longitude,omitempty"`
	FormattedAddress string     `json:"formatted_address,omitempty"`
	PlaceID          string     `json:"place_id,omitempty"`
	ConfidenceScore  *float64   `json:"confidence_score,omitempty"`
	LastUpdated      *time.Time `json:"last_updated,omitempty"`
}

// LocationComparison compares location data between providers
type LocationComparison struct {
	AddressSimilarityScore    float64  `json:"address_similarity_score"`
	CoordinateDistanceKM      *float64 `json:"coordinate_distance_km,omitempty"`
	CityMatch                 bool     `json:"city_match"`
	StateMatch                bool     `json:"state_match"`
	CountryMatch              bool     `json:"country_match"`
	PostalCodeMatch           bool     `json:"postal_code_match"`
	OverallLocationConfidence float64  `json:"overall_location_confidence"`
}

// LocationVerificationData is the complete location verification result
type LocationVerificationData struct {
	CompanyName        string              `json:"company_name"`
	SearchQuery        string              `json:"search_query"`
	GooglePlacesData   *LocationData       `json:"google_places_data,omitempty"`
	NominatimOSMData   *LocationData       `json:"nominatim_osm_data,omitempty"`
	Comparison         *LocationComparison `json:"comparison,omitempty"`
	AuthenticityScore  float64             `json:"authenticity_score"`
	VerificationStatus string              `json:"verification_status"` // verified, suspicious, unknown
	RiskFactors        []string            `json:"risk_factors"`
	TrustIndicators    []string            `json:"trust_indicators"`
	LastVerified       *time.Time          `json:"last_verified,omitempty"`
}

// PortfolioPageData is scraped content from one portfolio page
type PortfolioPageData struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// PortfolioSummary is a generated summary of the portfolio content
type PortfolioSummary struct {
	Summary        string              `json:"summary"`
	Method         string              `json:"method"` // llm or nlp
	ModelUsed      string              `json:"model_used,omitempty"`
	KeyPhrases     []string            `json:"key_phrases,omitempty"`
	Entities       map[string][]string `json:"entities,omitempty"`
	TechniquesUsed []string            `json:"techniques_used,omitempty"`
	Error          string              `json:"error,omitempty"`
	GeneratedAt    *time.Time          `json:"generated_at,omitempty"`
}

// PortfolioData is the canonical portfolio research payload.
// Backend pipeline versions emit it under several different keys;
// ResolvePortfolio normalizes them into this one shape.
type PortfolioData struct {
	Domain             string              `json:"domain"`
	Pages              []PortfolioPageData `json:"pages"`
	RawText            string              `json:"raw_text"`
	PortfolioURLs      []string            `json:"portfolio_urls"`
	Technologies       []string            `json:"technologies"`
	Industries         []string            `json:"industries"`
	Projects           []string            `json:"projects"`
	ScrapedAt          *time.Time          `json:"scraped_at,omitempty"`
	TotalPagesScraped  int                 `json:"total_pages_scraped"`
	TotalContentLength int                 `json:"total_content_length"`
	LLMSummary         *PortfolioSummary   `json:"llm_summary,omitempty"`
	NLPSummary         *PortfolioSummary   `json:"nlp_summary,omitempty"`
	AcquisitionHistory []map[string]any    `json:"acquisition_history,omitempty"`
	ExpansionNews      []string            `json:"expansion_news,omitempty"`
	MarketPosition     string              `json:"market_position,omitempty"`
	GrowthScore        *float64            `json:"growth_score,omitempty"`
}

// ResearchTaskResult is the outcome of one research source task
type ResearchTaskResult struct {
	Source         ResearchSource `json:"source"`
	Status         ResearchStatus `json:"status"`
	Data           map[string]any `json:"data,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	ProcessingTime float64        `json:"processing_time"`
	CostEstimate   *float64       `json:"cost_estimate,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}

// ResearchCostEstimate breaks down the expected cost of a research run
type ResearchCostEstimate struct {
	EstimatedTotalCost         float64                    `json:"estimated_total_cost"`
	CostBreakdown              map[ResearchSource]float64 `json:"cost_breakdown"`
	CostOptimizationTips       []string                   `json:"cost_optimization_tips"`
	AlternativeResearchOptions []map[string]any           `json:"alternative_research_options"`
}

// QuickCheckResult reduces a basic-depth research run to a short
// verification summary
type QuickCheckResult struct {
	CompanyName       string         `json:"company_name"`
	CompanyDomain     string         `json:"company_domain,omitempty"`
	DomainVerified    bool           `json:"domain_verified"`
	WebPresence       bool           `json:"web_presence"`
	BasicAuthenticity string         `json:"basic_authenticity"` // verified or unknown
	ResearchStatus    ResearchStatus `json:"research_status"`
	ProcessingTime    float64        `json:"processing_time"`
}

// SourceInfo describes a single research source offered by the backend
type SourceInfo struct {
	Description  string  `json:"description"`
	CostEstimate float64 `json:"cost_estimate"`
	Premium      bool    `json:"premium"`
}

// SourceCatalog lists the research sources the backend offers and
// which sources each depth runs
type SourceCatalog struct {
	AvailableSources map[ResearchSource]SourceInfo      `json:"available_sources"`
	ResearchDepths   map[ResearchDepth][]ResearchSource `json:"research_depths"`
}
