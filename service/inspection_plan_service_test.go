/*
 * @module service/inspection_plan_service_test
 * @description Unit tests for inspection plan and step management
 * @architecture test layer
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow test DB setup -> service calls -> assertions
 * @rules tests run against in-memory sqlite
 * @dependencies testing, stretchr/testify, controlflow-service/testutil
 */

package service

import (
	"testing"

	"controlflow-service/service/models"
	"controlflow-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupPlanService(t *testing.T) (*InspectionPlanService, *testutil.TestDataFactory) {
	t.Helper()
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)
	return NewInspectionPlanService(tdb.DB), testutil.NewTestDataFactory(tdb.DB)
}

func TestCreatePlanAssignsOrdinals(t *testing.T) {
	svc, factory := setupPlanService(t)
	product := factory.CreateProduct()

	plan := &models.InspectionPlan{
		ProductID: product.ID,
		Name:      "Final assembly checks",
		Steps: []models.PlanStep{
			{Name: "Label check", Type: "etiqueta"},
			{Name: "Visual check", Type: "visual"},
		},
	}
	require.NoError(t, svc.CreatePlan(plan))

	assert.Equal(t, 1, plan.Steps[0].Ordinal)
	assert.Equal(t, 2, plan.Steps[1].Ordinal)
}

func TestCreatePlanUnknownProduct(t *testing.T) {
	svc, _ := setupPlanService(t)

	err := svc.CreatePlan(&models.InspectionPlan{ProductID: "missing", Name: "plan"})
	assert.EqualError(t, err, "product does not exist")
}

func TestCreatePlanInvalidStepType(t *testing.T) {
	svc, factory := setupPlanService(t)
	product := factory.CreateProduct()

	err := svc.CreatePlan(&models.InspectionPlan{
		ProductID: product.ID,
		Name:      "plan",
		Steps:     []models.PlanStep{{Name: "bad", Type: "xray"}},
	})
	assert.EqualError(t, err, "invalid step type: xray")
}

func TestGetPlanStepsOrdered(t *testing.T) {
	svc, factory := setupPlanService(t)
	product := factory.CreateProduct()

	plan := &models.InspectionPlan{
		ProductID: product.ID,
		Name:      "plan",
		Steps: []models.PlanStep{
			{Name: "third", Type: "visual", Ordinal: 3},
			{Name: "first", Type: "etiqueta", Ordinal: 1},
			{Name: "second", Type: "measurement", Ordinal: 2},
		},
	}
	require.NoError(t, svc.CreatePlan(plan))

	found, err := svc.GetPlan(plan.ID)
	require.NoError(t, err)
	require.Len(t, found.Steps, 3)
	assert.Equal(t, "first", found.Steps[0].Name)
	assert.Equal(t, "second", found.Steps[1].Name)
	assert.Equal(t, "third", found.Steps[2].Name)
}

func TestUpdatePlanRejectsInvalidStatus(t *testing.T) {
	svc, factory := setupPlanService(t)
	product := factory.CreateProduct()
	plan := factory.CreatePlan(product.ID)

	err := svc.UpdatePlan(plan.ID, map[string]interface{}{"status": "paused"})
	assert.EqualError(t, err, "invalid plan status: paused")
}

func TestDeletePlanCascadesSteps(t *testing.T) {
	svc, factory := setupPlanService(t)
	product := factory.CreateProduct()
	plan := factory.CreatePlan(product.ID)

	require.NoError(t, svc.DeletePlan(plan.ID))

	var stepCount int64
	factory.DB.Model(&models.PlanStep{}).Where("plan_id = ?", plan.ID).Count(&stepCount)
	assert.Equal(t, int64(0), stepCount)

	_, err := svc.GetPlan(plan.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAddStepAppendsAfterMaxOrdinal(t *testing.T) {
	svc, factory := setupPlanService(t)
	product := factory.CreateProduct()
	plan := factory.CreatePlan(product.ID) // one step with ordinal 1

	step := &models.PlanStep{Name: "Measurement", Type: "measurement"}
	require.NoError(t, svc.AddStep(plan.ID, step))

	assert.Equal(t, 2, step.Ordinal)
	assert.Equal(t, plan.ID, step.PlanID)
}

func TestAddStepUnknownPlan(t *testing.T) {
	svc, _ := setupPlanService(t)

	err := svc.AddStep("missing", &models.PlanStep{Name: "x", Type: "visual"})
	assert.EqualError(t, err, "inspection plan does not exist")
}
