package sqlinline

// QUpsertUserByEmail provisions a user on first sign-in and returns the
// existing row afterwards. New accounts start with 50 sketch credits; the
// conflict branch only bumps updated_at so the returning clause works for
// both paths.
const QUpsertUserByEmail = `--sql 6e9b1d3f-5a7c-4e2b-8d0a-2c4f6a8b0d1e
insert into users(id, email, display_name, remaining_quota, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, 50, now(), now())
on conflict (email) do update set updated_at = now()
returning id, remaining_quota;
`
