package segment_promote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	types "github.com/kierolabs/dealdesk-backend/internal/domain"
	jobrt "github.com/kierolabs/dealdesk-backend/internal/jobs/runtime"
	"github.com/kierolabs/dealdesk-backend/internal/modules/lineage/segment"
	"github.com/kierolabs/dealdesk-backend/internal/observability"
	"github.com/kierolabs/dealdesk-backend/internal/platform/dbctx"
)

// Per-asset actions.
const (
	ActionPromoted    = "promoted"
	ActionNeedsReview = "needs_review"
	ActionRejected    = "rejected"
	ActionUnchanged   = "unchanged"
)

// Delta is one asset's entry in the run report.
type Delta struct {
	AssetID    uuid.UUID     `json:"asset_id"`
	Action     string        `json:"action"`
	Reason     string        `json:"reason,omitempty"`
	Persisted  segment.Label `json:"persisted,omitempty"`
	Computed   segment.Label `json:"computed"`
	Confidence float64       `json:"confidence"`
}

// Report is the full run outcome, persisted to promotion_run and
// optionally to the artifact bucket.
type Report struct {
	DealID         uuid.UUID  `json:"deal_id"`
	RunKey         string     `json:"run_key"`
	RulesetVersion string     `json:"ruleset_version"`
	Thresholds     Thresholds `json:"thresholds"`
	Force          bool       `json:"force"`
	DryRun         bool       `json:"dry_run"`

	Promoted    int `json:"promoted"`
	NeedsReview int `json:"needs_review"`
	Rejected    int `json:"rejected"`
	Unchanged   int `json:"unchanged"`

	Deltas []Delta `json:"deltas"`
}

// Decide classifies one asset's delta. Pure; the write itself happens
// separately and may still turn a promoted decision into unchanged when
// the conditional update matches zero rows.
func Decide(flags segment.QualityFlags, computed segment.Classification, t Thresholds, force bool) (string, string) {
	if flags.HumanOverride() {
		return ActionUnchanged, "human override present"
	}
	if !computed.Label.Known() {
		return ActionRejected, "computed unknown"
	}
	persisted := flags.PersistedLabel()
	if persisted == computed.Label {
		return ActionUnchanged, "label already persisted"
	}
	if flags.Promoted() && persisted.Known() && !force {
		// A prior run promoted a different label; never auto-overwrite.
		return ActionNeedsReview, "conflicts with prior promotion"
	}
	switch {
	case computed.Confidence >= t.AutoAcceptAt:
		return ActionPromoted, ""
	case computed.Confidence >= t.ReviewAt:
		return ActionNeedsReview, "confidence below auto-accept"
	default:
		return ActionRejected, "confidence below review"
	}
}

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	if p == nil || p.db == nil || p.assets == nil || p.extractions == nil || p.promotions == nil {
		jc.Fail("validate", fmt.Errorf("segment_promote: pipeline not configured"))
		return nil
	}

	dealID, ok := jc.PayloadUUID("deal_id")
	if !ok || dealID == uuid.Nil {
		jc.Fail("validate", fmt.Errorf("missing deal_id"))
		return nil
	}

	thresholds := DefaultThresholds(p.log)
	if v, ok := jc.PayloadFloat("reject_below"); ok {
		thresholds.RejectBelow = v
	}
	if v, ok := jc.PayloadFloat("review_at"); ok {
		thresholds.ReviewAt = v
	}
	if v, ok := jc.PayloadFloat("auto_accept_at"); ok {
		thresholds.AutoAcceptAt = v
	}
	thresholds = thresholds.Clamp()
	force := jc.PayloadBool("force")
	dryRun := jc.PayloadBool("dry_run")

	runKey := fmt.Sprint(jc.Payload()["run_key"])
	if runKey == "" || runKey == "<nil>" {
		// One logical run per deal, ruleset version, and day: a second
		// enqueue without an explicit key replays the recorded run.
		runKey = fmt.Sprintf("deal:%s:%s:%s", dealID, p.ruleset.Version, time.Now().UTC().Format("2006-01-02"))
	}

	dbc := dbctx.Context{Ctx: jc.Ctx}

	// Re-submissions of the same logical run are answered from the stored
	// record instead of re-running the writes.
	if prior, err := p.promotions.GetByRunKey(dbc, runKey); err == nil && prior != nil {
		p.log.Info("promotion run already recorded", "run_key", runKey)
		jc.Succeed(map[string]any{
			"promotion_run_id": prior.ID.String(),
			"run_key":          runKey,
			"replayed":         true,
		})
		return nil
	}

	jc.Progress("load", 10)
	deal, err := p.deals.GetByID(dbc, dealID)
	if err != nil {
		jc.Fail("load", fmt.Errorf("load deal: %w", err))
		return nil
	}
	docs, err := p.documents.GetByDealID(dbc, dealID)
	if err != nil {
		jc.Fail("load", fmt.Errorf("load documents: %w", err))
		return nil
	}
	docIDs := make([]uuid.UUID, 0, len(docs))
	docTitles := map[uuid.UUID]string{}
	for _, d := range docs {
		docIDs = append(docIDs, d.ID)
		docTitles[d.ID] = d.Title
	}
	assets, err := p.assets.GetByDocumentIDs(dbc, docIDs)
	if err != nil {
		jc.Fail("load", fmt.Errorf("load assets: %w", err))
		return nil
	}
	assetIDs := make([]uuid.UUID, 0, len(assets))
	for _, a := range assets {
		assetIDs = append(assetIDs, a.ID)
	}
	latest, err := p.extractions.LatestByAssetIDs(dbc, assetIDs)
	if err != nil {
		jc.Fail("load", fmt.Errorf("load extractions: %w", err))
		return nil
	}

	jc.Progress("classify", 40)
	report := Report{
		DealID:         dealID,
		RunKey:         runKey,
		RulesetVersion: p.ruleset.Version,
		Thresholds:     thresholds,
		Force:          force,
		DryRun:         dryRun,
	}
	promotedAt := time.Now().UTC()

	// Classification is pure, so fan it out; writes stay serial below.
	computedByIdx := make([]segment.Classification, len(assets))
	var g errgroup.Group
	g.SetLimit(4)
	for i, asset := range assets {
		i, asset := i, asset
		g.Go(func() error {
			computedByIdx[i] = segment.Classify(p.ruleset, featuresFor(deal, asset, latest[asset.ID]))
			return nil
		})
	}
	_ = g.Wait()

	for i, asset := range assets {
		flags := segment.ParseQualityFlags(asset.QualityFlags)
		computed := computedByIdx[i]

		action, reason := Decide(flags, computed, thresholds, force)
		if action == ActionPromoted && !dryRun {
			changed, err := p.writePromotion(dbc, asset.ID, flags, computed, promotedAt)
			if err != nil {
				p.log.Warn("promotion write failed", "asset_id", asset.ID, "error", err)
				action, reason = ActionRejected, "write failed"
			} else if changed == 0 {
				// A concurrent run got there first; the no-op write is not
				// counted as a change.
				action, reason = ActionUnchanged, "conditional update matched zero rows"
			}
		}

		switch action {
		case ActionPromoted:
			report.Promoted++
		case ActionNeedsReview:
			report.NeedsReview++
		case ActionRejected:
			report.Rejected++
		default:
			report.Unchanged++
		}
		observability.Current().IncPromotionAction(action)
		report.Deltas = append(report.Deltas, Delta{
			AssetID:    asset.ID,
			Action:     action,
			Reason:     reason,
			Persisted:  flags.PersistedLabel(),
			Computed:   computed.Label,
			Confidence: computed.Confidence,
		})
	}

	jc.Progress("record", 80)
	rawReport, err := json.Marshal(report)
	if err != nil {
		jc.Fail("record", err)
		return nil
	}
	run := &types.PromotionRun{
		JobRunID:       &jc.Job.ID,
		DealID:         dealID,
		RunKey:         runKey,
		RulesetVersion: p.ruleset.Version,
		RejectBelow:    thresholds.RejectBelow,
		ReviewAt:       thresholds.ReviewAt,
		AutoAcceptAt:   thresholds.AutoAcceptAt,
		Promoted:       report.Promoted,
		NeedsReview:    report.NeedsReview,
		Rejected:       report.Rejected,
		Unchanged:      report.Unchanged,
		Report:         datatypes.JSON(rawReport),
	}

	if p.artifacts != nil && !dryRun {
		key := fmt.Sprintf("promotions/%s/%s.json", dealID, jc.Job.ID)
		url, err := p.artifacts.UploadReport(jc.Ctx, key, bytes.NewReader(rawReport))
		if err != nil {
			p.log.Warn("artifact upload failed", "run_key", runKey, "error", err)
		} else {
			run.ArtifactURL = url
		}
	}

	if _, err := p.promotions.Create(dbc, run); err != nil {
		jc.Fail("record", fmt.Errorf("record promotion run: %w", err))
		return nil
	}

	if report.Promoted > 0 && p.cache != nil {
		if err := p.cache.Invalidate(jc.Ctx, dealID); err != nil {
			p.log.Warn("graph cache invalidation failed", "deal_id", dealID, "error", err)
		}
	}

	jc.Succeed(map[string]any{
		"promotion_run_id": run.ID.String(),
		"run_key":          runKey,
		"promoted":         report.Promoted,
		"needs_review":     report.NeedsReview,
		"rejected":         report.Rejected,
		"unchanged":        report.Unchanged,
	})
	return nil
}

// writePromotion commits the computed label into the asset's quality
// flags with a conditional single-row update.
func (p *Pipeline) writePromotion(dbc dbctx.Context, assetID uuid.UUID, flags segment.QualityFlags, computed segment.Classification, promotedAt time.Time) (int64, error) {
	flags.SegmentKey = string(computed.Label)
	flags.SegmentSource = string(computed.Source)
	flags.SegmentConfidence = computed.Confidence
	flags.SegmentPromotedAt = &promotedAt
	raw, err := flags.Encode()
	if err != nil {
		return 0, err
	}
	return p.assets.UpdateQualityFlags(dbc, assetID, raw)
}

// featuresFor mirrors the lineage builder's per-asset feature bundle;
// promotion never uses hints so the rescore is hint-independent.
func featuresFor(deal *types.Deal, asset *types.VisualAsset, ex *types.Extraction) segment.Features {
	f := segment.Features{}
	if deal != nil {
		if deal.Company != "" {
			f.BrandTerms = append(f.BrandTerms, deal.Company)
		}
		if deal.Name != "" && deal.Name != deal.Company {
			f.BrandTerms = append(f.BrandTerms, deal.Name)
		}
	}
	if asset.AssetKind == types.AssetKindVisionPage {
		f.Source = segment.SourceVision
		if ex != nil {
			f.Snippet = ex.OCRText
			f.Summary = ex.Summary
		}
		return f
	}
	f.Source = segment.SourceStructured
	if ex != nil {
		title, body, _ := segment.ParseStructuredContent(ex.StructuredContent)
		f.Title = title
		f.Snippet = body
		f.Summary = ex.Summary
	}
	return f
}
