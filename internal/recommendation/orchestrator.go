package recommendation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wso2/financial-recommendation-api/internal/cache"
	"github.com/wso2/financial-recommendation-api/internal/consent"
	consentmodel "github.com/wso2/financial-recommendation-api/internal/consent/model"
	"github.com/wso2/financial-recommendation-api/internal/guardrails"
	"github.com/wso2/financial-recommendation-api/internal/recommendation/model"
	"github.com/wso2/financial-recommendation-api/internal/review"
	reviewmodel "github.com/wso2/financial-recommendation-api/internal/review/model"
	"github.com/wso2/financial-recommendation-api/internal/system/config"
	"github.com/wso2/financial-recommendation-api/internal/system/error/serviceerror"
	"github.com/wso2/financial-recommendation-api/internal/system/log"
	"github.com/wso2/financial-recommendation-api/internal/system/metrics"
	"github.com/wso2/financial-recommendation-api/internal/system/middleware"
	"github.com/wso2/financial-recommendation-api/internal/system/utils"
)

// Served statuses
const (
	StatusNone     = "none"
	StatusPending  = "pending"
	StatusApproved = "approved"
)

// Response is what a user sees for a recommendation request. PartnerOffers only ever
// holds eligible offers.
type Response struct {
	Status         string       `json:"status"`
	EducationItems []model.Item `json:"educationItems"`
	PartnerOffers  []model.Item `json:"partnerOffers"`
	Summary        string       `json:"summary,omitempty"`
}

// OrchestratorInterface serves per-user recommendations
type OrchestratorInterface interface {
	GetRecommendations(ctx context.Context, userID int64) (*Response, *serviceerror.ServiceError)
}

// Dependencies are the collaborators an Orchestrator coordinates.
type Dependencies struct {
	Consent     consent.ConsentServiceInterface
	Reviews     review.ReviewStore
	Profiles    ProfileGenerator
	Candidates  CandidateGenerator
	Invalidator cache.Invalidator
}

// Options tune generation.
type Options struct {
	GenerationTimeout time.Duration
	ProfileTTL        time.Duration
	Tone              config.ToneConfig
}

type profile struct {
	persona model.Persona
	signals model.Signals
}

type cacheGeneration struct {
	value uint64
	valid bool
}

type generationResult struct {
	response   *Response
	serviceErr *serviceerror.ServiceError
}

type orchestrator struct {
	deps        Dependencies
	eligibility *guardrails.EligibilityFilter
	tone        *guardrails.ToneValidator
	profiles    *cache.ProfileCache[profile]
	timeout     time.Duration
	group       singleflight.Group
	now         func() int64
	logger      *log.Logger
}

// NewOrchestrator creates the recommendation orchestrator
func NewOrchestrator(deps Dependencies, opts Options) OrchestratorInterface {
	return &orchestrator{
		deps:        deps,
		eligibility: guardrails.NewEligibilityFilter(),
		tone:        guardrails.NewToneValidator(opts.Tone),
		profiles:    cache.NewProfileCache[profile](deps.Invalidator, opts.ProfileTTL),
		timeout:     opts.GenerationTimeout,
		now:         utils.GetCurrentTimeMillis,
		logger:      log.GetLogger().With(log.String(log.LoggerKeyComponentName, "RecommendationOrchestrator")),
	}
}

// GetRecommendations decides which view of a user's recommendations to expose:
// an approved snapshot, a pending placeholder, or a freshly generated set.
func (o *orchestrator) GetRecommendations(ctx context.Context, userID int64) (*Response, *serviceerror.ServiceError) {
	logger := o.logger.With(
		log.Int64("user_id", userID),
		log.String("correlation_id", middleware.CorrelationIDFromContext(ctx)),
	)

	dataConsent, serviceErr := o.deps.Consent.GetRecord(ctx, userID, consentmodel.KindDataProcessing)
	if serviceErr != nil {
		return nil, o.fail(serviceErr)
	}
	if !dataConsent.Granted {
		metrics.RecommendationsServed.WithLabelValues("forbidden").Inc()
		return nil, serviceerror.CustomServiceError(
			serviceerror.ConsentRequiredError,
			fmt.Sprintf("user %d has not granted data_processing consent", userID),
		)
	}

	approved, err := o.deps.Reviews.FindApproved(ctx, userID)
	if err != nil {
		logger.Error("Failed to look up approved review", log.Error(err))
		return nil, o.fail(storageUnavailable("failed to look up approved review", err))
	}
	if approved != nil {
		return o.serveApproved(logger, approved), nil
	}

	gen, genErr := o.deps.Invalidator.Generation(ctx, userID)
	if genErr != nil {
		logger.Warn("Cache generation unavailable, bypassing profile cache", log.Error(genErr))
	}

	pending, err := o.deps.Reviews.FindPending(ctx, userID)
	if err != nil {
		logger.Error("Failed to look up pending review", log.Error(err))
		return nil, o.fail(storageUnavailable("failed to look up pending review", err))
	}
	if pending != nil && !isStale(pending, dataConsent, gen, genErr == nil) {
		metrics.RecommendationsServed.WithLabelValues(StatusPending).Inc()
		return &Response{Status: StatusPending, EducationItems: []model.Item{}, PartnerOffers: []model.Item{}}, nil
	}
	if pending != nil {
		logger.Info("Pending review was computed under an earlier consent period, regenerating",
			log.String("review_id", pending.ReviewID))
	}

	// Callers for the same user share one generation cycle. The cycle runs detached from
	// any single caller's cancellation and is bounded by the generation timeout instead.
	genCtx := context.WithoutCancel(ctx)
	v, _, _ := o.group.Do(strconv.FormatInt(userID, 10), func() (interface{}, error) {
		response, serviceErr := o.generate(genCtx, logger, userID, cacheGeneration{value: gen, valid: genErr == nil})
		return generationResult{response: response, serviceErr: serviceErr}, nil
	})
	result := v.(generationResult)
	if result.serviceErr != nil {
		return nil, o.fail(result.serviceErr)
	}
	metrics.RecommendationsServed.WithLabelValues(StatusNone).Inc()
	return result.response, nil
}

// serveApproved re-applies the item guardrails to a stored snapshot before serving it.
func (o *orchestrator) serveApproved(logger *log.Logger, approved *reviewmodel.Review) *Response {
	eduEligible := o.eligibility.Recheck(approved.RecommendationData.Education)
	offerEligible := o.eligibility.Recheck(approved.RecommendationData.PartnerOffers)
	eduFinal := guardrails.RequireRationale(eduEligible.Retained)
	offerFinal := guardrails.RequireRationale(offerEligible.Retained)

	ineligible := len(eduEligible.Dropped) + len(offerEligible.Dropped)
	missingRationale := len(eduFinal.Dropped) + len(offerFinal.Dropped)
	if ineligible+missingRationale > 0 {
		metrics.GuardrailDrops.WithLabelValues(guardrails.GuardrailEligibility).Add(float64(ineligible))
		metrics.GuardrailDrops.WithLabelValues(guardrails.GuardrailRationale).Add(float64(missingRationale))
		logger.Warn("Approved snapshot contained items failing serving-time checks",
			log.String("review_id", approved.ReviewID),
			log.Int("ineligible", ineligible),
			log.Int("missing_rationale", missingRationale))
	}

	metrics.RecommendationsServed.WithLabelValues(StatusApproved).Inc()
	return &Response{
		Status:         StatusApproved,
		EducationItems: eduFinal.Retained,
		PartnerOffers:  offerFinal.Retained,
		Summary:        approved.RecommendationData.Summary,
	}
}

// generate runs one generation cycle: generators, guardrails, then the pending review upsert.
// Nothing is written unless both generator calls complete within the timeout.
func (o *orchestrator) generate(
	ctx context.Context,
	logger *log.Logger,
	userID int64,
	gen cacheGeneration,
) (*Response, *serviceerror.ServiceError) {
	start := time.Now()
	defer func() { metrics.GenerationDuration.Observe(time.Since(start).Seconds()) }()

	genCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	p, serviceErr := o.loadProfile(genCtx, logger, userID, gen)
	if serviceErr != nil {
		return nil, serviceErr
	}

	candidates, err := o.deps.Candidates.GenerateCandidates(genCtx, userID, p.persona, p.signals)
	if err != nil {
		return nil, o.generatorError(genCtx, logger, "candidate generation failed", err)
	}
	if genCtx.Err() != nil {
		return nil, o.generatorError(genCtx, logger, "candidate generation did not finish in time", genCtx.Err())
	}

	aiFeatures := false
	if record, serviceErr := o.deps.Consent.GetRecord(ctx, userID, consentmodel.KindAIFeatures); serviceErr != nil {
		logger.Warn("Failed to read ai_features consent, recording as not granted",
			log.String("error_description", serviceErr.ErrorDescription))
	} else {
		aiFeatures = record.Granted
	}

	data, trace := o.applyGuardrails(p, candidates)
	trace.Guardrails.ConsentDataProcessing = true
	trace.Guardrails.ConsentAIFeatures = aiFeatures
	trace.GeneratedAt = o.now()
	trace.CacheGeneration = gen.value
	trace.CacheGenerationKnown = gen.valid

	if saved, err := o.deps.Reviews.UpsertPending(ctx, userID, data, trace); err != nil {
		metrics.ReviewPersistFailures.Inc()
		logger.Error("Failed to persist pending review, serving unreviewed recommendations", log.Error(err))
	} else {
		logger.Info("Pending review recorded",
			log.String("review_id", saved.ReviewID),
			log.Int("education", trace.Selected.Education),
			log.Int("partner_offers", trace.Selected.PartnerOffers))
	}

	return &Response{
		Status:         StatusNone,
		EducationItems: data.Education,
		PartnerOffers:  data.PartnerOffers,
		Summary:        data.Summary,
	}, nil
}

// loadProfile returns the cached persona and signals for the user's current cache
// generation, computing and caching them on a miss. InsufficientData is cached too.
func (o *orchestrator) loadProfile(
	ctx context.Context,
	logger *log.Logger,
	userID int64,
	gen cacheGeneration,
) (profile, *serviceerror.ServiceError) {
	if gen.valid {
		entry, ok, err := o.profiles.Get(ctx, userID)
		if err != nil {
			logger.Warn("Profile cache lookup failed", log.Error(err))
		} else if ok {
			if entry.Err != nil {
				return profile{}, insufficientData(userID)
			}
			return entry.Value, nil
		}
	}

	persona, signals, err := o.deps.Profiles.GeneratePersonaProfile(ctx, userID)
	if errors.Is(err, ErrInsufficientData) {
		if gen.valid {
			o.profiles.Put(userID, gen.value, profile{}, err)
		}
		return profile{}, insufficientData(userID)
	}
	if err != nil {
		return profile{}, o.generatorError(ctx, logger, "persona profile generation failed", err)
	}

	p := profile{persona: persona, signals: signals}
	if gen.valid {
		o.profiles.Put(userID, gen.value, p, nil)
	}
	return p, nil
}

// applyGuardrails runs eligibility, tone and rationale checks in that order and records
// every outcome in the decision trace.
func (o *orchestrator) applyGuardrails(p profile, set model.CandidateSet) (reviewmodel.RecommendationData, reviewmodel.DecisionTrace) {
	checked := len(set.Education) + len(set.PartnerOffers)

	eduEligible := o.eligibility.Filter(set.Education)
	offerEligible := o.eligibility.Filter(set.PartnerOffers)
	eligibility := mergeOutcome(checked, eduEligible, offerEligible)

	toneInput := len(eduEligible.Retained) + len(offerEligible.Retained)
	eduTone := o.tone.Filter(eduEligible.Retained)
	offerTone := o.tone.Filter(offerEligible.Retained)
	tone := mergeOutcome(toneInput, eduTone, offerTone)

	rationaleInput := len(eduTone.Retained) + len(offerTone.Retained)
	eduFinal := guardrails.RequireRationale(eduTone.Retained)
	offerFinal := guardrails.RequireRationale(offerTone.Retained)
	rationale := mergeOutcome(rationaleInput, eduFinal, offerFinal)

	metrics.GuardrailDrops.WithLabelValues(guardrails.GuardrailEligibility).Add(float64(eligibility.Dropped))
	metrics.GuardrailDrops.WithLabelValues(guardrails.GuardrailTone).Add(float64(tone.Dropped))
	metrics.GuardrailDrops.WithLabelValues(guardrails.GuardrailRationale).Add(float64(rationale.Dropped))

	data := reviewmodel.RecommendationData{
		Education:     eduFinal.Retained,
		PartnerOffers: offerFinal.Retained,
		Summary: fmt.Sprintf("%d education items and %d partner offers for persona %s",
			len(eduFinal.Retained), len(offerFinal.Retained), personaLabel(p.persona)),
	}
	trace := reviewmodel.DecisionTrace{
		Persona: p.persona,
		Signals: p.signals,
		Guardrails: reviewmodel.GuardrailTrace{
			EligibilityChecked: eligibility,
			ToneValidated:      tone,
			RationalePresent:   rationale,
		},
		Selected: reviewmodel.SelectedCounts{
			Education:     len(data.Education),
			PartnerOffers: len(data.PartnerOffers),
		},
	}
	return data, trace
}

func mergeOutcome(checked int, results ...guardrails.Result) reviewmodel.GuardrailOutcome {
	outcome := reviewmodel.GuardrailOutcome{Checked: checked}
	for _, r := range results {
		outcome.Retained += len(r.Retained)
		outcome.Dropped += len(r.Dropped)
		outcome.Drops = append(outcome.Drops, r.Dropped...)
	}
	return outcome
}

func (o *orchestrator) generatorError(ctx context.Context, logger *log.Logger, msg string, err error) *serviceerror.ServiceError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		logger.Warn("Recommendation generation timed out", log.Error(err))
		return serviceerror.CustomServiceError(
			serviceerror.GenerationTimeoutError,
			fmt.Sprintf("generation did not complete within %s", o.timeout),
		)
	}
	logger.Error(msg, log.Error(err))
	return serviceerror.CustomServiceError(serviceerror.GenerationFailedError, fmt.Sprintf("%s: %v", msg, err))
}

func (o *orchestrator) fail(serviceErr *serviceerror.ServiceError) *serviceerror.ServiceError {
	metrics.RecommendationsServed.WithLabelValues("error").Inc()
	return serviceErr
}

// isStale reports whether a pending review was computed under an earlier consent period:
// its cache generation has since been cleared, or it predates the latest grant.
// Generations are compared only when both the review's and the current one are known.
func isStale(pending *reviewmodel.Review, dataConsent *consentmodel.ConsentRecord, gen uint64, genKnown bool) bool {
	if genKnown && pending.DecisionTrace.CacheGenerationKnown && pending.DecisionTrace.CacheGeneration != gen {
		return true
	}
	return dataConsent.GrantedAt != nil && pending.CreatedAt < *dataConsent.GrantedAt
}

func insufficientData(userID int64) *serviceerror.ServiceError {
	return serviceerror.CustomServiceError(
		serviceerror.InsufficientDataError,
		fmt.Sprintf("not enough data to compute signals for user %d", userID),
	)
}

func storageUnavailable(msg string, err error) *serviceerror.ServiceError {
	return serviceerror.CustomServiceError(serviceerror.StorageUnavailableError, fmt.Sprintf("%s: %v", msg, err))
}

func personaLabel(p model.Persona) string {
	if p.Name != "" {
		return p.Name
	}
	if p.ID != "" {
		return p.ID
	}
	return "unassigned"
}
