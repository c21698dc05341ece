package service

import (
	"time"

	"github.com/google/uuid"

	id "beredskap/pkg/domain"
	dErrors "beredskap/pkg/domain-errors"
)

func (s *EngineSuite) TestContributeBatch() {
	group := s.createGroupWithFounder("Pool", smithAdmin)
	waterType := s.addProductType(s.smithHousehold, "Vann")

	s.Run("member contributes their own batch", func() {
		batchID := s.addBatch(s.smithHousehold, waterType, 6)

		contribution, err := s.service.ContributeBatch(s.ctx(smithAdmin), batchID, group.ID, smithAdmin)
		s.Require().NoError(err)
		s.Require().NotNil(contribution.BatchID)
		s.Equal(batchID, *contribution.BatchID)
		s.Equal(s.smithHousehold, contribution.HouseholdID)
	})

	s.Run("unknown batch is NotFound", func() {
		_, err := s.service.ContributeBatch(s.ctx(smithAdmin), id.BatchID(uuid.New()), group.ID, smithAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown group is NotFound", func() {
		batchID := s.addBatch(s.smithHousehold, waterType, 6)
		_, err := s.service.ContributeBatch(s.ctx(smithAdmin), batchID, id.GroupID(uuid.New()), smithAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("already contributed batch is a Conflict, even in another group", func() {
		batchID := s.addBatch(s.smithHousehold, waterType, 6)
		_, err := s.service.ContributeBatch(s.ctx(smithAdmin), batchID, group.ID, smithAdmin)
		s.Require().NoError(err)

		other := s.createGroupWithFounder("Second Pool", smithAdmin)
		_, err = s.service.ContributeBatch(s.ctx(smithAdmin), batchID, other.ID, smithAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("non-member is forbidden", func() {
		jonesType := s.addProductType(s.jonesHousehold, "Hermetikk")
		batchID := s.addBatch(s.jonesHousehold, jonesType, 4)

		_, err := s.service.ContributeBatch(s.ctx(jonesAdmin), batchID, group.ID, jonesAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("someone else's batch is forbidden", func() {
		s.enroll(group.ID, "Jones", smithAdmin, jonesAdmin)
		batchID := s.addBatch(s.smithHousehold, waterType, 6)

		_, err := s.service.ContributeBatch(s.ctx(jonesAdmin), batchID, group.ID, jonesAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *EngineSuite) TestContributionLifecycle() {
	group := s.createGroupWithFounder("Cycle", smithAdmin)
	waterType := s.addProductType(s.smithHousehold, "Vann")
	batchID := s.addBatch(s.smithHousehold, waterType, 6)

	contribution, err := s.service.ContributeBatch(s.ctx(smithAdmin), batchID, group.ID, smithAdmin)
	s.Require().NoError(err)

	s.Run("contributed batch reports as contributed", func() {
		contributed, err := s.service.IsBatchContributed(s.ctx(smithAdmin), batchID, smithAdmin)
		s.Require().NoError(err)
		s.True(contributed)
	})

	s.Run("second contribution conflicts", func() {
		_, err := s.service.ContributeBatch(s.ctx(smithAdmin), batchID, group.ID, smithAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("retract frees the batch for re-contribution", func() {
		s.Require().NoError(s.service.Retract(s.ctx(smithAdmin), contribution.ID, smithAdmin))

		contributed, err := s.service.IsBatchContributed(s.ctx(smithAdmin), batchID, smithAdmin)
		s.Require().NoError(err)
		s.False(contributed)

		_, err = s.service.ContributeBatch(s.ctx(smithAdmin), batchID, group.ID, smithAdmin)
		s.Require().NoError(err)
	})

	s.Run("retract by batch id", func() {
		s.Require().NoError(s.service.RetractBatch(s.ctx(smithAdmin), batchID, smithAdmin))

		contributed, err := s.service.IsBatchContributed(s.ctx(smithAdmin), batchID, smithAdmin)
		s.Require().NoError(err)
		s.False(contributed)
	})
}

func (s *EngineSuite) TestRetractAuthorization() {
	group := s.createGroupWithFounder("Guarded", smithAdmin)
	s.enroll(group.ID, "Jones", smithAdmin, jonesAdmin)
	waterType := s.addProductType(s.smithHousehold, "Vann")
	batchID := s.addBatch(s.smithHousehold, waterType, 6)

	contribution, err := s.service.ContributeBatch(s.ctx(smithAdmin), batchID, group.ID, smithAdmin)
	s.Require().NoError(err)

	s.Run("absent contribution is NotFound", func() {
		err := s.service.Retract(s.ctx(smithAdmin), id.ContributionID(uuid.New()), smithAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("foreign contribution is Forbidden, not NotFound", func() {
		err := s.service.Retract(s.ctx(jonesAdmin), contribution.ID, jonesAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("owner retract succeeds", func() {
		s.Require().NoError(s.service.Retract(s.ctx(smithAdmin), contribution.ID, smithAdmin))
	})
}

func (s *EngineSuite) TestContributeCustom() {
	group := s.createGroupWithFounder("Manual", smithAdmin)

	s.Run("member adds a manual entry", func() {
		expiry := s.now.Add(90 * 24 * time.Hour)
		contribution, err := s.service.ContributeCustom(s.ctx(smithAdmin), group.ID, "Stormkjøkken", &expiry, smithAdmin)
		s.Require().NoError(err)
		s.False(contribution.IsBatchBacked())
		s.Equal("Stormkjøkken", contribution.CustomName)
	})

	s.Run("blank name is rejected", func() {
		_, err := s.service.ContributeCustom(s.ctx(smithAdmin), group.ID, "", nil, smithAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("non-member is forbidden", func() {
		_, err := s.service.ContributeCustom(s.ctx(jonesAdmin), group.ID, "Telt", nil, jonesAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *EngineSuite) TestAggregations() {
	group := s.createGroupWithFounder("Sums", smithAdmin)
	s.enroll(group.ID, "Jones", smithAdmin, jonesAdmin)

	smithWater := s.addProductType(s.smithHousehold, "Vann")
	jonesFood := s.addProductType(s.jonesHousehold, "Hermetikk")

	b1 := s.addBatch(s.smithHousehold, smithWater, 6)
	b2 := s.addBatch(s.smithHousehold, smithWater, 4)
	b3 := s.addBatch(s.jonesHousehold, jonesFood, 12)

	for batch, email := range map[id.BatchID]string{b1: smithAdmin, b2: smithAdmin, b3: jonesAdmin} {
		_, err := s.service.ContributeBatch(s.ctx(email), batch, group.ID, email)
		s.Require().NoError(err)
	}

	s.Run("total units sums only the requested type", func() {
		total, err := s.service.TotalUnitsForProductType(s.ctx(smithAdmin), smithWater, group.ID)
		s.Require().NoError(err)
		s.Equal(10, total)
	})

	s.Run("unknown product type is NotFound", func() {
		_, err := s.service.TotalUnitsForProductType(s.ctx(smithAdmin), id.ProductTypeID(uuid.New()), group.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown group is NotFound", func() {
		_, err := s.service.TotalUnitsForProductType(s.ctx(smithAdmin), smithWater, id.GroupID(uuid.New()))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("contributed product types are distinct and sorted", func() {
		types, err := s.service.ContributedProductTypes(s.ctx(smithAdmin), group.ID, smithAdmin, 0, 10)
		s.Require().NoError(err)
		s.Require().Len(types, 2)
		s.Equal("Hermetikk", types[0].Name)
		s.Equal("Vann", types[1].Name)
	})

	s.Run("contributed product types are membership-guarded", func() {
		other := s.createGroupWithFounder("Private Sums", jonesAdmin)
		_, err := s.service.ContributedProductTypes(s.ctx(smithAdmin), other.ID, smithAdmin, 0, 10)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("batches by type filters and pages", func() {
		batches, err := s.service.ContributedBatchesByType(s.ctx(smithAdmin), group.ID, smithWater, 0, 1)
		s.Require().NoError(err)
		s.Require().Len(batches, 1)

		batches, err = s.service.ContributedBatchesByType(s.ctx(smithAdmin), group.ID, smithWater, 0, 10)
		s.Require().NoError(err)
		s.Len(batches, 2)
	})
}

func (s *EngineSuite) TestSearchContributedProductTypes() {
	group := s.createGroupWithFounder("Searching", smithAdmin)
	s.enroll(group.ID, "Jones", smithAdmin, jonesAdmin)

	water := s.addProductType(s.smithHousehold, "Vann")
	purifier := s.addProductType(s.smithHousehold, "Vannrenser")
	food := s.addProductType(s.jonesHousehold, "Hermetikk")
	// Stays in inventory, never contributed.
	s.addProductType(s.smithHousehold, "Vannkanne")

	for typeID, email := range map[id.ProductTypeID]string{water: smithAdmin, purifier: smithAdmin, food: jonesAdmin} {
		household := s.smithHousehold
		if email == jonesAdmin {
			household = s.jonesHousehold
		}
		batch := s.addBatch(household, typeID, 1)
		_, err := s.service.ContributeBatch(s.ctx(email), batch, group.ID, email)
		s.Require().NoError(err)
	}

	s.Run("matches the name case-insensitively", func() {
		types, err := s.service.SearchContributedProductTypes(s.ctx(smithAdmin), group.ID, "VANN", smithAdmin, 0, 10)
		s.Require().NoError(err)
		s.Require().Len(types, 2)
		s.Equal("Vann", types[0].Name)
		s.Equal("Vannrenser", types[1].Name)
	})

	s.Run("only contributed types are searched", func() {
		types, err := s.service.SearchContributedProductTypes(s.ctx(smithAdmin), group.ID, "kanne", smithAdmin, 0, 10)
		s.Require().NoError(err)
		s.Empty(types)
	})

	s.Run("empty query matches everything", func() {
		types, err := s.service.SearchContributedProductTypes(s.ctx(smithAdmin), group.ID, "", smithAdmin, 0, 10)
		s.Require().NoError(err)
		s.Len(types, 3)
	})

	s.Run("pages the matches", func() {
		types, err := s.service.SearchContributedProductTypes(s.ctx(smithAdmin), group.ID, "vann", smithAdmin, 1, 1)
		s.Require().NoError(err)
		s.Require().Len(types, 1)
		s.Equal("Vannrenser", types[0].Name)
	})

	s.Run("search is membership-guarded", func() {
		other := s.createGroupWithFounder("Private Search", jonesAdmin)
		_, err := s.service.SearchContributedProductTypes(s.ctx(smithAdmin), other.ID, "vann", smithAdmin, 0, 10)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}
