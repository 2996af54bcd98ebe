package services

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ekaya-inc/safecode-engine/pkg/audit"
	"github.com/ekaya-inc/safecode-engine/pkg/models"
)

const validPDPCode = `// @init
function initTest() {
  const cta = document.querySelector('#add-to-cart');
  cta.classList.add('variant-b');
}
initTest();`

type testEnv struct {
	brand     *models.Brand
	brands    *mockBrandRepository
	rules     *mockCodeRuleRepository
	selectors *mockDOMSelectorRepository
	templates *mockTemplateRepository
	codes     *memCodeRepository
	audit     *memAuditRepository
	tx        *fakeTxRunner
	publisher *recordingPublisher
	security  *observer.ObservedLogs

	validation    ValidationService
	generatedCode GeneratedCodeService
	review        ReviewService
	auditSvc      AuditService
}

func newTestEnv() *testEnv {
	brand := &models.Brand{ID: uuid.New(), Name: "Acme", Status: models.BrandStatusActive}
	env := &testEnv{
		brand:  brand,
		brands: newMockBrandRepository(brand),
		rules: &mockCodeRuleRepository{rules: []models.CodeRule{
			{ID: uuid.New(), BrandID: brand.ID, RuleType: models.RuleTypeForbiddenPattern, RuleContent: "eval(", Priority: 9, IsActive: true},
			{ID: uuid.New(), BrandID: brand.ID, RuleType: models.RuleTypeMaxLength, RuleContent: "5000", Priority: 3, IsActive: true},
		}},
		selectors: &mockDOMSelectorRepository{selectors: []models.DOMSelector{
			{ID: uuid.New(), BrandID: brand.ID, SelectorString: "#add-to-cart", PageType: models.PageTypePDP, Status: models.SelectorStatusActive},
			{ID: uuid.New(), BrandID: brand.ID, SelectorString: ".legacy-cta", PageType: models.PageTypePDP, Status: models.SelectorStatusDeprecated},
			{ID: uuid.New(), BrandID: brand.ID, SelectorString: ".cart-total", PageType: models.PageTypeCart, Status: models.SelectorStatusActive},
		}},
		templates: &mockTemplateRepository{template: &models.Template{
			ID: uuid.New(), BrandID: brand.ID, TestType: models.TestTypePDP, IsActive: true,
			TemplateCode: "// @init\nfunction initTest() {\n}\ninitTest();\n",
		}},
		codes:     newMemCodeRepository(),
		audit:     &memAuditRepository{},
		publisher: &recordingPublisher{},
	}
	env.tx = &fakeTxRunner{codes: env.codes, audit: env.audit}

	logger := zap.NewNop()
	securityCore, securityLogs := observer.New(zapcore.InfoLevel)
	env.security = securityLogs
	security := audit.NewSecurityAuditor(zap.New(securityCore))

	env.validation = NewValidationService(&ValidationServiceDeps{
		BrandRepo:    env.brands,
		RuleRepo:     env.rules,
		SelectorRepo: env.selectors,
		TemplateRepo: env.templates,
		Logger:       logger,
	})
	env.generatedCode = NewGeneratedCodeService(&GeneratedCodeServiceDeps{
		Validation: env.validation,
		CodeRepo:   env.codes,
		Publisher:  env.publisher,
		Security:   security,
		Logger:     logger,
	})
	env.review = NewReviewService(&ReviewServiceDeps{
		CodeRepo:  env.codes,
		AuditRepo: env.audit,
		TxRunner:  env.tx,
		Publisher: env.publisher,
		Security:  security,
		Now:       func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
		Logger:    logger,
	})
	env.auditSvc = NewAuditService(env.audit, env.codes, logger)
	return env
}

// seedCode stores a record directly in status.
func (e *testEnv) seedCode(status models.CodeStatus) *models.GeneratedCode {
	code := &models.GeneratedCode{
		ID:        uuid.New(),
		BrandID:   e.brand.ID,
		TestType:  models.TestTypePDP,
		PageType:  models.PageTypePDP,
		Code:      validPDPCode,
		Status:    status,
		Breakdown: &models.ConfidenceBreakdown{},
		CreatedAt: time.Now().UTC(),
	}
	e.codes.codes[code.ID] = *code
	return code
}

func (e *testEnv) brandAdmin() models.Actor {
	return models.Actor{ID: uuid.New(), Role: models.RoleBrandAdmin, BrandIDs: []uuid.UUID{e.brand.ID}}
}

func (e *testEnv) brandUser() models.Actor {
	return models.Actor{ID: uuid.New(), Role: models.RoleBrandUser, BrandIDs: []uuid.UUID{e.brand.ID}}
}

func otherBrandAdmin() models.Actor {
	return models.Actor{ID: uuid.New(), Role: models.RoleBrandAdmin, BrandIDs: []uuid.UUID{uuid.New()}}
}

func deployer() models.Actor {
	return models.Actor{ID: uuid.New(), Role: models.RoleDeployer}
}

func superAdmin() models.Actor {
	return models.Actor{ID: uuid.New(), Role: models.RoleSuperAdmin}
}

func strPtr(s string) *string { return &s }

func statusPtr(s models.CodeStatus) *models.CodeStatus { return &s }
