// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

//go:build integration

package postgres_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/gatehouse-auth/gatehouse/internal/auth"
	"github.com/gatehouse-auth/gatehouse/internal/auth/postgres"
)

var _ = Describe("AccountRepository", func() {
	var (
		ctx  context.Context
		repo *postgres.AccountRepository
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = postgres.NewAccountRepository(testPool)
		_, err := testPool.Exec(ctx, `TRUNCATE accounts RESTART IDENTITY`)
		Expect(err).NotTo(HaveOccurred())
	})

	It("inserts and finds accounts by every searchable field", func() {
		id, err := repo.Insert(ctx, auth.NewAccount{Username: "alice", Email: "a@x.com", PasswordHash: "hash"})
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(BeNumerically(">", 0))

		byName, err := repo.FindByField(ctx, auth.FieldUsername, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(byName.ID).To(Equal(id))
		Expect(byName.CreatedAt).NotTo(BeZero())

		byEmail, err := repo.FindByField(ctx, auth.FieldEmail, "a@x.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(byEmail.Username).To(Equal("alice"))

		byID, err := repo.GetByID(ctx, id)
		Expect(err).NotTo(HaveOccurred())
		Expect(byID.PasswordHash).To(Equal("hash"))
	})

	It("reports missing accounts as not found", func() {
		_, err := repo.FindByField(ctx, auth.FieldUsername, "ghost")
		Expect(errors.Is(err, auth.ErrNotFound)).To(BeTrue())

		_, err = repo.GetByID(ctx, 12345)
		Expect(errors.Is(err, auth.ErrNotFound)).To(BeTrue())
	})

	DescribeTable("enforces uniqueness in the database",
		func(second auth.NewAccount, field auth.LookupField) {
			_, err := repo.Insert(ctx, auth.NewAccount{Username: "alice", Email: "a@x.com", PasswordHash: "hash"})
			Expect(err).NotTo(HaveOccurred())

			_, err = repo.Insert(ctx, second)
			var dup *auth.DuplicateError
			Expect(errors.As(err, &dup)).To(BeTrue())
			Expect(dup.Field).To(Equal(field))
		},
		Entry("username", auth.NewAccount{Username: "alice", Email: "b@x.com", PasswordHash: "h"}, auth.FieldUsername),
		Entry("email", auth.NewAccount{Username: "bob", Email: "a@x.com", PasswordHash: "h"}, auth.FieldEmail),
	)
})
